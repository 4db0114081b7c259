// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package visual

import (
	"fmt"
	"image"
)

// ConfigurationError reports an institution that cannot be checked because
// its registry entry or reference images are missing or unreadable. It is
// fatal to the authenticity check only.
type ConfigurationError struct {
	Code   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("institution %q: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("institution %q: %s", e.Code, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// InputError reports a certificate image that cannot be used at all, because
// it is missing, failed to decode, or has an unsupported format.
type InputError struct {
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid certificate image: %s: %v", e.Reason, e.Err)
	}
	return "invalid certificate image: " + e.Reason
}

func (e *InputError) Unwrap() error { return e.Err }

// RegionError reports a decoded image in which a registered region rounds to
// zero pixels. Only the authenticity check fails; the rest of the
// verification still runs.
type RegionError struct {
	Region    image.Rectangle
	ImageSize image.Point
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("image too small for region: %v is empty at image size %v", e.Region, e.ImageSize)
}
