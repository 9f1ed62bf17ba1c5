package displays

import "errors"

// Failure taxonomy shared by every bus adapter. Adapters map each transport
// failure to exactly one of these kinds and wrap the underlying cause with
// fmt.Errorf("%w: %w", kind, err), so callers match the kind with errors.Is
// and can still inspect the transport error. The set is not closed: match
// defensively, new kinds may appear.
var (
	// ErrBusWrite means the payload could not be transmitted. It covers
	// bus-level write failures and, on parallel interfaces, write strobe
	// faults.
	ErrBusWrite = errors.New("displays: bus write failed")
	// ErrDCLine means the data/command select line could not be driven.
	ErrDCLine = errors.New("displays: could not drive data/command line")
	// ErrCSLine means the chip select line could not be driven.
	ErrCSLine = errors.New("displays: could not drive chip select line")
	// ErrResetLine means the reset line could not be driven. Reset faults
	// are kept apart from write-path faults since they usually indicate a
	// wiring or power problem rather than a failed transaction.
	ErrResetLine = errors.New("displays: could not drive reset line")
	// ErrOutOfBounds is reserved for display drivers addressing pixels
	// outside the panel; the adapters never produce it themselves.
	ErrOutOfBounds = errors.New("displays: coordinates out of bounds")
	// ErrFormatNotSupported is returned when an adapter is handed a
	// DataFormat variant it does not recognize. No transport call is
	// attempted in that case.
	ErrFormatNotSupported = errors.New("displays: data format not supported")
	// ErrBusBusy is returned by transports whose bus engine rejected the
	// transfer because a previous one is still in flight.
	ErrBusBusy = errors.New("displays: bus engine is busy")
)
