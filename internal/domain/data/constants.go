package data

var (
	// EmptyColumn is the qualifier of the liveness marker written to every live row
	EmptyColumn = []byte("_0")

	// DefaultColumnFamily holds columns declared without an explicit family
	DefaultColumnFamily = []byte("0")

	// SingleColumnFamily and SingleColumn address the cell an aggregating
	// region writes its partial result into
	SingleColumnFamily = []byte("_s")
	SingleColumn       = []byte("_s")

	// True is the payload of boolean marker attributes
	True = []byte{1}
)
