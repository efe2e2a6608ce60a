package malasim

import "fmt"

// locStateAgeKey and locMovingKey are the bucket keys for the two
// secondary indexes spec §4.7 requires at minimum.
type locStateAgeKey struct {
	location int
	state    HostState
	ageClass int
}

type locMovingKey struct {
	location    int
	movingLevel int
}

// bucketIndex is a generic non-owning secondary index: persons are kept in
// per-key slices with O(1) swap-with-back removal, and each person's
// current (key, position) pair is cached so NotifyChange can relocate it
// without a linear scan (I-X1).
type bucketIndex[K comparable] struct {
	buckets map[K][]*Person
	keyOf   func(p *Person) K
	posOf   map[int]int // person ID -> position within its current bucket
	keyCur  map[int]K   // person ID -> current bucket key
}

func newBucketIndex[K comparable](keyOf func(p *Person) K) *bucketIndex[K] {
	return &bucketIndex[K]{
		buckets: make(map[K][]*Person),
		keyOf:   keyOf,
		posOf:   make(map[int]int),
		keyCur:  make(map[int]K),
	}
}

func (idx *bucketIndex[K]) add(p *Person) {
	k := idx.keyOf(p)
	idx.buckets[k] = append(idx.buckets[k], p)
	idx.posOf[p.ID] = len(idx.buckets[k]) - 1
	idx.keyCur[p.ID] = k
}

func (idx *bucketIndex[K]) remove(p *Person) {
	k, ok := idx.keyCur[p.ID]
	if !ok {
		return
	}
	bucket := idx.buckets[k]
	pos := idx.posOf[p.ID]
	last := len(bucket) - 1
	if pos != last {
		bucket[pos] = bucket[last]
		idx.posOf[bucket[pos].ID] = pos
	}
	bucket[last] = nil
	idx.buckets[k] = bucket[:last]
	delete(idx.posOf, p.ID)
	delete(idx.keyCur, p.ID)
}

// relocate moves p from its current bucket to the bucket keyOf(p) now
// computes, a no-op if the key is unchanged.
func (idx *bucketIndex[K]) relocate(p *Person) {
	newKey := idx.keyOf(p)
	if old, ok := idx.keyCur[p.ID]; ok && old == newKey {
		return
	}
	idx.remove(p)
	idx.add(p)
}

func (idx *bucketIndex[K]) bucket(k K) []*Person {
	return idx.buckets[k]
}

// PopulationIndexes bundles the two required secondary indexes and
// implements PersonIndex so Person setters can notify both in one call.
type PopulationIndexes struct {
	byLocStateAge *bucketIndex[locStateAgeKey]
	byLocMoving   *bucketIndex[locMovingKey]
}

// NewPopulationIndexes creates the two secondary indexes, empty.
func NewPopulationIndexes() *PopulationIndexes {
	return &PopulationIndexes{
		byLocStateAge: newBucketIndex(func(p *Person) locStateAgeKey {
			return locStateAgeKey{p.Location, p.State, p.AgeClass}
		}),
		byLocMoving: newBucketIndex(func(p *Person) locMovingKey {
			return locMovingKey{p.Location, p.MovingLevel}
		}),
	}
}

// Add inserts p into both secondary indexes.
func (pi *PopulationIndexes) Add(p *Person) {
	pi.byLocStateAge.add(p)
	pi.byLocMoving.add(p)
}

// Remove drops p from both secondary indexes.
func (pi *PopulationIndexes) Remove(p *Person) {
	pi.byLocStateAge.remove(p)
	pi.byLocMoving.remove(p)
}

// NotifyChange implements PersonIndex: relocates p within whichever
// bucket(s) the changed property affects.
func (pi *PopulationIndexes) NotifyChange(p *Person, property string, oldValue, newValue interface{}) {
	switch property {
	case "location", "state", "age_class":
		pi.byLocStateAge.relocate(p)
		if property == "location" {
			pi.byLocMoving.relocate(p)
		}
	case "moving_level":
		pi.byLocMoving.relocate(p)
	default:
		panic(fmt.Sprintf(UnrecognizedKeywordError, property, "PopulationIndexes.NotifyChange property"))
	}
}

// ByLocationStateAgeClass returns the (non-owning) slice of persons
// currently in the given bucket.
func (pi *PopulationIndexes) ByLocationStateAgeClass(location int, state HostState, ageClass int) []*Person {
	return pi.byLocStateAge.bucket(locStateAgeKey{location, state, ageClass})
}

// ByLocationMovingLevel returns the (non-owning) slice of persons
// currently at the given (location, movingLevel) bucket.
func (pi *PopulationIndexes) ByLocationMovingLevel(location, movingLevel int) []*Person {
	return pi.byLocMoving.bucket(locMovingKey{location, movingLevel})
}
