package scan

import (
	"bytes"
	"fmt"

	"github.com/leengari/postddl/internal/domain/data"
)

// Intent is one side effect or execution mode requested from the region
// executing a scan. Intents are only turned into attributes at the wire
// boundary (see Spec.Attributes).
type Intent interface {
	apply(attrs map[string][]byte)
	String() string
}

// UngroupedAggregate asks the region to aggregate the whole scan into one row
type UngroupedAggregate struct{}

// DeleteAll deletes every column under the scanned families of matched rows
type DeleteAll struct{}

// DeleteColumn deletes one column of matched rows
type DeleteColumn struct {
	Family    []byte
	Qualifier []byte
}

// BackfillEmpty writes the empty key value under Family for matched rows
type BackfillEmpty struct {
	Family []byte
}

// WithIndexMetadata points the region at a server cache holding the
// serialized index maintainers of the table
type WithIndexMetadata struct {
	CacheID []byte
}

func (UngroupedAggregate) apply(attrs map[string][]byte) { attrs[AttrUngroupedAgg] = data.True }
func (DeleteAll) apply(attrs map[string][]byte)          { attrs[AttrDeleteAgg] = data.True }

func (i DeleteColumn) apply(attrs map[string][]byte) {
	attrs[AttrDeleteCF] = i.Family
	attrs[AttrDeleteCQ] = i.Qualifier
}

func (i BackfillEmpty) apply(attrs map[string][]byte)     { attrs[AttrEmptyCF] = i.Family }
func (i WithIndexMetadata) apply(attrs map[string][]byte) { attrs[AttrIndexUUID] = i.CacheID }

func (UngroupedAggregate) String() string { return "UNGROUPED_AGG" }
func (DeleteAll) String() string          { return "DELETE_ALL" }

func (i DeleteColumn) String() string {
	return fmt.Sprintf("DELETE_COLUMN(%s.%s)", i.Family, i.Qualifier)
}

func (i BackfillEmpty) String() string {
	return fmt.Sprintf("BACKFILL_EMPTY(%s)", i.Family)
}

func (i WithIndexMetadata) String() string {
	return fmt.Sprintf("INDEX_METADATA(%x)", i.CacheID)
}

// ParseIntents decodes the intents encoded in an attribute map.
// The order of the result is fixed: aggregation mode first, then side effects.
func ParseIntents(attrs map[string][]byte) ([]Intent, error) {
	var intents []Intent

	if v, ok := attrs[AttrUngroupedAgg]; ok {
		if !bytes.Equal(v, data.True) {
			return nil, fmt.Errorf("attribute %s: expected boolean marker, got %x", AttrUngroupedAgg, v)
		}
		intents = append(intents, UngroupedAggregate{})
	}

	if v, ok := attrs[AttrDeleteAgg]; ok {
		if !bytes.Equal(v, data.True) {
			return nil, fmt.Errorf("attribute %s: expected boolean marker, got %x", AttrDeleteAgg, v)
		}
		intents = append(intents, DeleteAll{})
	}

	cf, hasCF := attrs[AttrDeleteCF]
	cq, hasCQ := attrs[AttrDeleteCQ]
	if hasCF != hasCQ {
		return nil, fmt.Errorf("attributes %s and %s must be set together", AttrDeleteCF, AttrDeleteCQ)
	}
	if hasCF {
		intents = append(intents, DeleteColumn{Family: cf, Qualifier: cq})
	}

	if v, ok := attrs[AttrEmptyCF]; ok {
		if len(v) == 0 {
			return nil, fmt.Errorf("attribute %s: empty family", AttrEmptyCF)
		}
		intents = append(intents, BackfillEmpty{Family: v})
	}

	if v, ok := attrs[AttrIndexUUID]; ok {
		intents = append(intents, WithIndexMetadata{CacheID: v})
	}

	return intents, nil
}
