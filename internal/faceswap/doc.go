// Package faceswap detects faces and composites a source face onto target
// images.
//
// The detection and swap models are not implemented here. They live in an
// external face runtime reached through the Runtime interface; HTTPRuntime
// talks to one running as a local service.
//
// # Engine
//
// The Engine owns the runtime handle. The runtime is loaded at most once,
// on the first IsAvailable call (or the first operation). If loading fails
// every operation fails fast with *model.EngineUnavailableError:
//
//	engine := faceswap.NewEngine(faceswap.NewHTTPRuntime("http://127.0.0.1:7870"))
//	if avail := engine.IsAvailable(ctx); !avail.Available() {
//	    // skip the face swap phase
//	}
//
//	out, err := engine.Swap(ctx, target, source, 0, 0)
//	var noFace *model.NoFaceFoundError
//	if errors.As(err, &noFace) {
//	    fmt.Println("no face on", noFace.Side)
//	}
//
// A face index beyond the detected faces falls back to index 0 instead of
// failing, so one multi-face image does not stop a batch.
//
// # Concurrency
//
// Engine methods are safe for concurrent use. Calls into the runtime are
// serialized; decoding, blending and encoding are not.
package faceswap
