package run

import "errors"

var (
	ErrNoSlides      = errors.New("no slides detected")
	ErrRunNotFound   = errors.New("run not found")
	ErrRunInProgress = errors.New("run is still generating")
)

// NoSlidesMessage is shown to users whose script has no recognizable header.
const NoSlidesMessage = "No infographic slides detected. Make sure the script follows the header format."
