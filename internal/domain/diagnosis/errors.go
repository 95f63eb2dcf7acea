package diagnosis

import "errors"

var (
	// ErrDecode indicates the uploaded bytes are not a supported image.
	ErrDecode = errors.New("image decode failed")
	// ErrRemoteCall covers every failure of the remote analysis: auth, rate
	// limit, network, malformed model response.
	ErrRemoteCall = errors.New("remote analysis failed")
	// ErrRender indicates the PDF could not be produced.
	ErrRender = errors.New("report render failed")
	// ErrInvalidInput marks a request rejected before the pipeline starts.
	ErrInvalidInput = errors.New("invalid input")
)
