package freshness

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// SortKey names the attribute entries are ordered by.
type SortKey string

// Supported sort keys.
const (
	SortKeyUpdated SortKey = "updated"
	SortKeyName    SortKey = "name"
	SortKeyPath    SortKey = "path"
	SortKeyDepth   SortKey = "depth"
)

const (
	// DefaultSortOrderConstant ranks the most recently changed entries first.
	DefaultSortOrderConstant    = "-updated"
	descendingPrefixConstant    = "-"
	ascendingPrefixConstant     = "+"
	invalidSortKeyErrorTemplate = "%w: %q (expected one of updated, name, path, depth)"
	firstRankConstant           = 1
)

// ErrInvalidSortKey indicates a sort expression naming an unknown key.
var ErrInvalidSortKey = errors.New("invalid sort key")

var sortKeyAliases = map[string]SortKey{
	"updated":    SortKeyUpdated,
	"updated_at": SortKeyUpdated,
	"time":       SortKeyUpdated,
	"name":       SortKeyName,
	"basename":   SortKeyName,
	"path":       SortKeyPath,
	"rel_path":   SortKeyPath,
	"depth":      SortKeyDepth,
}

// SortOrder is a parsed sort expression.
type SortOrder struct {
	Key        SortKey
	Descending bool
}

// ParseSortOrder parses a key with an optional leading "-" for descending order. An empty value yields the default order.
func ParseSortOrder(value string) (SortOrder, error) {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		trimmedValue = DefaultSortOrderConstant
	}

	descending := strings.HasPrefix(trimmedValue, descendingPrefixConstant)
	keyName := strings.TrimPrefix(strings.TrimPrefix(trimmedValue, descendingPrefixConstant), ascendingPrefixConstant)

	sortKey, known := sortKeyAliases[strings.ToLower(strings.TrimSpace(keyName))]
	if !known {
		return SortOrder{}, fmt.Errorf(invalidSortKeyErrorTemplate, ErrInvalidSortKey, value)
	}
	return SortOrder{Key: sortKey, Descending: descending}, nil
}

// RankOptions configures RankEntries. A nil Since keeps every entry.
type RankOptions struct {
	Since *time.Time
	Order SortOrder
}

// RankEntries drops entries changed before Since, stable-sorts the rest, and assigns dense ranks from 1.
// The input slice is not modified.
func RankEntries(entries []PathEntry, options RankOptions) []PathEntry {
	rankedEntries := make([]PathEntry, 0, len(entries))
	for _, entry := range entries {
		if options.Since != nil && entry.LastChanged.Before(*options.Since) {
			continue
		}
		rankedEntries = append(rankedEntries, entry)
	}

	compareEntries := entryComparator(options.Order.Key)
	slices.SortStableFunc(rankedEntries, func(left PathEntry, right PathEntry) int {
		if options.Order.Descending {
			return compareEntries(right, left)
		}
		return compareEntries(left, right)
	})

	for entryIndex := range rankedEntries {
		rankedEntries[entryIndex].Rank = entryIndex + firstRankConstant
	}
	return rankedEntries
}

// Rank parses the since date and sort expression, then ranks the entries.
func Rank(entries []PathEntry, since string, sortBy string) ([]PathEntry, error) {
	rankOptions, optionsError := newRankOptions(since, sortBy)
	if optionsError != nil {
		return nil, optionsError
	}
	return RankEntries(entries, rankOptions), nil
}

func newRankOptions(since string, sortBy string) (RankOptions, error) {
	sortOrder, sortError := ParseSortOrder(sortBy)
	if sortError != nil {
		return RankOptions{}, sortError
	}

	rankOptions := RankOptions{Order: sortOrder}
	if len(strings.TrimSpace(since)) > 0 {
		sinceDate, sinceError := ParseSinceDate(since)
		if sinceError != nil {
			return RankOptions{}, sinceError
		}
		rankOptions.Since = &sinceDate
	}
	return rankOptions, nil
}

func entryComparator(sortKey SortKey) func(left PathEntry, right PathEntry) int {
	switch sortKey {
	case SortKeyName:
		return func(left PathEntry, right PathEntry) int { return strings.Compare(left.Name, right.Name) }
	case SortKeyPath:
		return func(left PathEntry, right PathEntry) int {
			return strings.Compare(left.RelativePath, right.RelativePath)
		}
	case SortKeyDepth:
		return func(left PathEntry, right PathEntry) int { return cmp.Compare(left.Depth, right.Depth) }
	default:
		return func(left PathEntry, right PathEntry) int { return left.LastChanged.Compare(right.LastChanged) }
	}
}
