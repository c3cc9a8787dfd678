package scan

// Attribute names understood by the aggregating region
const (
	// AttrUngroupedAgg runs the scan as a single whole-scan aggregation
	AttrUngroupedAgg = "UngroupedAgg"
	// AttrEmptyCF backfills the empty key value under the given family
	AttrEmptyCF = "EmptyCF"
	// AttrDeleteAgg deletes every column of the scanned families
	AttrDeleteAgg = "DeleteAgg"
	// AttrDeleteCF and AttrDeleteCQ address the single column to delete
	AttrDeleteCF = "DeleteCF"
	AttrDeleteCQ = "DeleteCQ"
	// AttrIndexUUID names the server cache holding index metadata
	AttrIndexUUID = "IdxUUID"
)
