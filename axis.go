package expt

import "fmt"

// Axis selects whether an operation targets samples (matrix rows) or
// features (matrix columns). It is validated at every API boundary; raw
// integers are never threaded through the library.
type Axis int

const (
	// Samples targets matrix rows and the sample metadata table.
	Samples Axis = 0
	// Features targets matrix columns and the feature metadata table.
	Features Axis = 1
)

func (a Axis) String() string {
	switch a {
	case Samples:
		return "samples"
	case Features:
		return "features"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

func (a Axis) valid() error {
	if a != Samples && a != Features {
		return fmt.Errorf("%w: %d", ErrUnknownAxis, int(a))
	}
	return nil
}

// ParseAxis converts the axis tokens accepted on tool boundaries ("0", "s",
// "sample", "samples" and the feature equivalents) into an Axis.
func ParseAxis(tok string) (Axis, error) {
	switch tok {
	case "0", "s", "sample", "samples":
		return Samples, nil
	case "1", "f", "feature", "features":
		return Features, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAxis, tok)
}
