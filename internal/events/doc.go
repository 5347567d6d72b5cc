// Package events defines the closed event taxonomy routed between the
// device-bridge worker, the API worker, and the router.
//
// The same logical concepts (state updates, terminal reads/writes) exist
// once per direction as nominally distinct types: bridge-facing events
// describe traffic to/from the physical device, websocket-facing events
// are the outward representation pushed to remote clients. Keeping the
// two directions as separate sum types preserves exhaustive type-switch
// safety when they evolve independently.
package events
