// Package remote defines the contract between ckptsync and a remote
// file store, and the authenticated Session every operation goes through.
//
// A Backend exposes a flat listing of items and chunked transfers. Items
// whose ID ends in "/" are folders. Backends that have no real folders
// (object stores) report plain object keys; Session derives one folder
// item per key prefix so that lookups behave the same on every backend.
//
// # Chunked Transfers
//
// Uploads and downloads are driven one chunk at a time:
//
//	up, err := session.NewUpload(ctx, remote.UploadRequest{Name: "best.pt", Body: f, Size: size})
//	for {
//	    fraction, done, err := up.NextChunk(ctx)
//	    if err != nil { ... }
//	    if done { break }
//	}
//	item := up.Item()
//
// The fraction is the backend's own estimate. It may lag, repeat, or stop
// short of 1.0 on the final chunk; callers that display progress must
// reconcile it themselves.
//
// # Backends
//
// Backends are constructed from configuration through a Registry:
//
//	reg := remote.NewRegistry()
//	reg.Register("memory", memory.Factory)
//	backend, err := reg.Open(ctx, "memory", cfg, remote.Options{})
package remote
