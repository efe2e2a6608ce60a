package malasim

const (
	// IntKeyNotFoundError is the message for "Integer key not found" errors
	IntKeyNotFoundError = "key %d not found"

	// IntKeyExistsError is the message printed when a given key already exists
	IntKeyExistsError = "key %d already exists"

	InvalidFloatParameterError  = "invalid %s %f, %s"
	InvalidIntParameterError    = "invalid %s %d, %s"
	InvalidStringParameterError = "invalid %s %s, %s"

	// InvalidGenotypeSequenceError fires when a raw amino-acid sequence does
	// not match the chromosome/gene/aa-position schema declared in config (I-G1).
	InvalidGenotypeSequenceError = "invalid genotype sequence %q: %s"
	// EventScheduledInPastError fires when constructing an event whose time
	// is before the scheduler's current day (I-E1).
	EventScheduledInPastError = "cannot schedule event at day %d, current day is %d"
	// UnrecognizedKeywordError fires on an unknown config keyword.
	UnrecognizedKeywordError = "%q is not a recognized value for %s"
)

const (
	UnequalFloatParameterError = "expected %s %f, instead got %f"
	UnequalIntParameterError   = "expected %s %d, instead got %d"
	UnexpectedErrorWhileError  = "encountered error while %s: %s"
	ExpectedErrorWhileError    = "expected an error while %s, instead got none"
)
