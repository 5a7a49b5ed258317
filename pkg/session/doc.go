// Package session implements server-side HTTP sessions whose lifecycle is
// decided once per request.
//
// A Manager loads the session named by a signed cookie at the start of the
// request, exposes it to handlers as a *State, and just before the response
// is committed resolves what happened to it into a single store action:
// create, update, touch, destroy, regenerate or nothing. Only explicit calls
// such as State.Set, State.Update or State.Regenerate count as changes, so an
// unchanged session costs one expiry refresh.
//
// Storage is pluggable through the Store interface. MemoryStore ships with
// the package; the sqlstore and redisstore subpackages provide SQL and
// key-value backends. Stores without native expiry implement Sweeper and are
// cleaned by a CleanupScheduler, while Get always filters expired records on
// its own.
//
// # Usage
//
//	import (
//	    "github.com/dmitrymomot/sessionkit/pkg/session"
//	)
//
//	store := session.NewMemoryStore()
//	manager, err := session.New(store,
//	    session.WithSecrets(os.Getenv("SESSION_SECRET")),
//	    session.WithMaxAge(30*time.Minute),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mux.Handle("/", manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	    state := session.MustFromContext(r.Context())
//	    views, _ := state.Get("views")
//	    n, _ := views.(float64)
//	    state.Set("views", n+1)
//	    fmt.Fprintf(w, "views: %v", n+1)
//	})))
//
// After a login, call state.Regenerate(nil) to move the payload to a fresh
// id. To log out, call state.Destroy().
//
// # Configuration
//
// Config can be filled from the environment with github.com/caarlos0/env and
// passed to NewFromConfig. Secrets are ordered: the first signs new cookies,
// all of them verify, which allows rotation.
//
// # Error Handling
//
//   - ErrConfig wraps every construction failure, such as a missing secret.
//   - ErrSessionMissing is returned by FromContext outside of Middleware.
//   - *StoreError wraps backend failures; match kinds with ErrStoreConnection,
//     ErrStoreTimeout and ErrStoreSerialization.
//   - *CleanupError is handed to the scheduler's error handler only.
package session
