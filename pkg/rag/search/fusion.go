package search

import "sort"

// maxFusedScore is the best combined RRF contribution a chunk can earn,
// first place in both rankings. Dividing by it maps scores to [0, 1] so
// a rank-1 hit from a single method lands at exactly 0.5.
const maxFusedScore = 2.0 / float64(RRFK+1)

// fuseRRF merges the two rankings with Reciprocal Rank Fusion. Each chunk
// contributes 1/(k+rank) per list it appears in, ranks are 1-based, and the
// sum is normalized against a first-place finish in both lists. When a chunk
// appears in both lists the vector row supplies the hit payload.
func fuseRRF(vectorHits, lexicalHits []Hit) []Result {
	merged := make(map[string]*Result, len(vectorHits)+len(lexicalHits))
	order := make([]string, 0, len(vectorHits)+len(lexicalHits))

	for i, hit := range vectorHits {
		key := hit.ChunkID
		merged[key] = &Result{
			Hit:         hit,
			VectorRank:  i + 1,
			VectorScore: hit.Score,
		}
		order = append(order, key)
	}

	for i, hit := range lexicalHits {
		key := hit.ChunkID
		res, ok := merged[key]
		if !ok {
			res = &Result{Hit: hit}
			merged[key] = res
			order = append(order, key)
		}
		res.LexicalRank = i + 1
		res.LexicalScore = hit.Score
	}

	results := make([]Result, 0, len(order))
	for _, key := range order {
		res := merged[key]

		combined := 0.0
		if res.VectorRank > 0 {
			combined += 1.0 / float64(RRFK+res.VectorRank)
		}
		if res.LexicalRank > 0 {
			combined += 1.0 / float64(RRFK+res.LexicalRank)
		}
		res.Score = combined / maxFusedScore

		results = append(results, *res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if bi, bj := bestRank(results[i]), bestRank(results[j]); bi != bj {
			return bi < bj
		}
		return results[i].LexicalRank > 0 && results[j].LexicalRank == 0
	})

	return results
}

func bestRank(r Result) int {
	best := r.VectorRank
	if best == 0 || (r.LexicalRank > 0 && r.LexicalRank < best) {
		best = r.LexicalRank
	}
	return best
}
