package nn

import "errors"

// ErrConfiguration reports a mismatch between the architecture, the decoded
// model and the tensor size the caller is configured for. It is detected
// once, when an engine is built, never per request.
var ErrConfiguration = errors.New("configuration error")
