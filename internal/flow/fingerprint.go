package flow

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"quizflow-service/internal/domain"
)

// Fingerprint identifies a batch of runs over a node set for metrics caching.
// Any new run, new answer, changed answer or completion changes it, and so
// does any change to the nodes the funnel is built from.
type Fingerprint struct {
	VersionID string
	RunCount  int
	Graph     uint64
	Digest    uint64
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%s:%d:%016x:%016x", f.VersionID, f.RunCount, f.Graph, f.Digest)
}

// MetricsFingerprint hashes runs independently of their order. Nodes are
// hashed in order since the funnel follows it.
func MetricsFingerprint(versionID string, nodes []domain.QuizNode, runs []domain.QuizRun) Fingerprint {
	g := xxhash.New()
	for _, n := range nodes {
		_, _ = g.WriteString(n.ID + "\x00" + n.Key + "\x00" + n.Title + "\x00" + string(n.Type) + "\x00" + strconv.Itoa(n.OrderIndex) + "\x01")
	}

	var sum uint64
	for _, run := range runs {
		d := xxhash.New()
		_, _ = d.WriteString(run.ID)
		for _, p := range run.Responses.Pairs() {
			_, _ = d.WriteString("\x00" + p.Key + "=" + domain.Stringify(p.Value))
		}
		if run.IsCompleted() {
			_, _ = d.WriteString("\x00completed")
		}
		sum += d.Sum64()
	}
	return Fingerprint{VersionID: versionID, RunCount: len(runs), Graph: g.Sum64(), Digest: sum}
}
