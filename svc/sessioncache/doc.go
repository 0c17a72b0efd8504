// Package sessioncache keeps authenticated browser state per environment, provider and
// engine in object storage, under {env}/sessions/{client}-{engine}.json.
//
// Freshness is checked empirically: ProbeValidity loads the blob into a disposable
// headless browser and looks for the mailbox marker. Probes never write. Refresh,
// CacheAll and Clone are operator tools behind the sessions CLI and are never invoked
// by the capture pipeline.
package sessioncache
