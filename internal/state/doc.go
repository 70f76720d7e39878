// Package state holds the home catalog shared between the background poller
// and the UI.
//
// # Overview
//
// The poller refreshes two lists on a cadence: the currently airing season
// and the upcoming season. The Store keeps the latest good copy of each so
// the home view can render without waiting on the network.
//
//	Producer (Poller):              Consumer (UI):
//	┌─────────────────┐            ┌──────────────────┐
//	│ SeasonNow()     │            │                  │
//	│ SeasonUpcoming()│            │                  │
//	│      ↓          │            │                  │
//	│ store.Update()  │───────────→│ store.Snapshot() │
//	│      ↓          │  (mutex)   │      ↓           │
//	│  repeat...      │            │  render view     │
//	└─────────────────┘            └──────────────────┘
//
// # Update Semantics
//
// Sections are independent. A failed section keeps its previous items and
// records the error on Section.Err; the other section still updates:
//
//	store.Update(airing, nil, nil, errUpcoming)
//	→ Airing.Items   = airing
//	→ Upcoming.Items = <unchanged>
//	→ Upcoming.Err   = errUpcoming
//	→ LastError      = errUpcoming
//
// ConsecutiveFailures counts polls in which every section failed and resets
// as soon as one section succeeds. IsOffline turns true after two such polls.
//
// # Concurrency Model
//
// Update takes the write lock and Snapshot the read lock. Both copy item
// slices and error values, so a Snapshot can be rendered while the poller
// writes the next one. The zero Store is ready to use.
package state
