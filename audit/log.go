package audit

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/fenwick-systems/missioncore/runtime"
)

// RetentionCutBehavior controls what happens to the hash chain when a
// retention window prunes the oldest records out from under it.
type RetentionCutBehavior string

const (
	// RetentionNewGenesis starts a fresh chain at the cut: the oldest
	// surviving record's PreviousHash is reset to genesisSentinel, and
	// verification only covers records on or after the cut.
	RetentionNewGenesis RetentionCutBehavior = "NewGenesis"
	// RetentionRefuseAcrossCut refuses to prune: whenever any record is
	// older than the retention window, Prune returns an error and removes
	// nothing instead of breaking the chain.
	RetentionRefuseAcrossCut RetentionCutBehavior = "RefuseAcrossCut"
)

// Log is the append-only, hash-chained audit log. One Log instance owns
// exclusive write access to its directory: dated JSONL files, one per
// UTC day, the way karin478-Apex's Logger shards by date. Records are
// also kept in memory for fast Query/Report without re-reading from
// disk, which is acceptable at mission-engine scale.
type Log struct {
	mu       sync.Mutex
	dir      string
	lastHash string
	records  []Record
	cut      RetentionCutBehavior
	window   time.Duration
	logger   runtime.Logger

	redis    *redis.Client
	redisKey string
}

// Option configures a Log at construction time.
type Option func(*Log)

// WithRetention sets the pruning window and cut behavior.
func WithRetention(window time.Duration, cut RetentionCutBehavior) Option {
	return func(l *Log) {
		l.window = window
		if cut != "" {
			l.cut = cut
		}
	}
}

// WithLogger attaches a structured logger for chain-break and retention
// warnings.
func WithLogger(logger runtime.Logger) Option {
	return func(l *Log) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithRedisMirror mirrors every appended record into a Redis list at
// key, best-effort, for external query tooling. Mirror failures never
// fail the append — the JSONL file is the source of truth.
func WithRedisMirror(client *redis.Client, key string) Option {
	return func(l *Log) {
		l.redis = client
		l.redisKey = key
	}
}

// Open creates or resumes a Log rooted at dir, replaying existing dated
// files in filename order to recover lastHash and the in-memory record
// set, mirroring karin478-Apex's NewLogger/initLastHash.
func Open(dir string, opts ...Option) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, runtime.NewMissionError("audit.Open", runtime.KindAudit, "", err)
	}
	l := &Log{dir: dir, lastHash: genesisSentinel, cut: RetentionRefuseAcrossCut, logger: runtime.NoOpLogger{}}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.replay(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Log) replay() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return runtime.NewMissionError("audit.Open", runtime.KindAudit, "", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, name := range files {
		f, err := os.Open(filepath.Join(l.dir, name))
		if err != nil {
			return runtime.NewMissionError("audit.Open", runtime.KindAudit, "", err)
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var r Record
			if err := json.Unmarshal(line, &r); err != nil {
				f.Close()
				return runtime.NewMissionError("audit.Open", runtime.KindAudit, "", err)
			}
			l.records = append(l.records, r)
			l.lastHash = r.ChainHash
		}
		f.Close()
	}
	return nil
}

func (l *Log) fileFor(t time.Time) string {
	return filepath.Join(l.dir, t.UTC().Format("2006-01-02")+".jsonl")
}

// computeChainHash hashes the record's content fields plus the previous
// record's chain hash, per the formula this repo publishes for external
// verification: SHA256(id || timestamp || kind || actor || resource ||
// action || outcome || risk || previous_hash).
func computeChainHash(r Record) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%s|%s",
		r.ID, r.Timestamp.UTC().Format(time.RFC3339Nano), r.Kind, r.Actor,
		r.Resource, r.Action, r.Outcome, r.Risk, r.PreviousHash)
	return hex.EncodeToString(h.Sum(nil))
}

// Append writes a new record to the end of the chain and returns its
// generated id. This is the single writer path: the log's mutex
// serializes all appends, so PreviousHash always reflects the true
// predecessor.
func (l *Log) Append(in NewRecordInput) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := Record{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Kind:         in.Kind,
		Actor:        in.Actor,
		Resource:     in.Resource,
		Action:       in.Action,
		Outcome:      in.Outcome,
		Risk:         in.Risk,
		Details:      in.Details,
		Metadata:     in.Metadata,
		PreviousHash: l.lastHash,
	}
	r.ChainHash = computeChainHash(r)

	data, err := json.Marshal(r)
	if err != nil {
		return "", runtime.NewMissionError("audit.Append", runtime.KindAudit, "", err)
	}
	f, err := os.OpenFile(l.fileFor(r.Timestamp), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", runtime.NewMissionError("audit.Append", runtime.KindAudit, "", err)
	}
	_, werr := f.Write(append(data, '\n'))
	cerr := f.Close()
	if werr != nil {
		return "", runtime.NewMissionError("audit.Append", runtime.KindAudit, "", werr)
	}
	if cerr != nil {
		return "", runtime.NewMissionError("audit.Append", runtime.KindAudit, "", cerr)
	}

	l.records = append(l.records, r)
	l.lastHash = r.ChainHash

	if l.redis != nil {
		go l.mirrorToRedis(r)
	}

	return r.ID, nil
}

func (l *Log) mirrorToRedis(r Record) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.redis.RPush(ctx, l.redisKey, data).Err(); err != nil {
		l.logger.Warn("audit redis mirror failed", map[string]interface{}{"error": err.Error()})
	}
}

// Query returns records matching filter, newest first, with
// limit/offset applied after filtering.
func (l *Log) Query(filter Filter) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	var matched []Record
	for _, r := range l.records {
		if filter.matches(r) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched
}

// Recent returns the n most recently appended records.
func (l *Log) Recent(n int) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.records) {
		n = len(l.records)
	}
	out := make([]Record, n)
	copy(out, l.records[len(l.records)-n:])
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// VerifyIntegrity walks the full in-memory chain and recomputes each
// record's hash, confirming both content integrity and chain linkage,
// mirroring karin478-Apex's Logger.Verify.
func (l *Log) VerifyIntegrity() VerifyResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := VerifyResult{OK: true}
	prev := genesisSentinel
	for _, r := range l.records {
		if r.PreviousHash != prev {
			result.OK = false
			result.CorruptedIDs = append(result.CorruptedIDs, r.ID)
		} else if computeChainHash(r) != r.ChainHash {
			result.OK = false
			result.CorruptedIDs = append(result.CorruptedIDs, r.ID)
		}
		prev = r.ChainHash
	}
	return result
}

// Prune removes records older than the configured retention window.
// Under RetentionRefuseAcrossCut it refuses (returning an error and
// removing nothing) whenever any record is older than the cutoff,
// rather than break the chain; under RetentionNewGenesis it resets the oldest
// survivor's PreviousHash to genesisSentinel and starts a fresh segment.
// Pruning only affects the in-memory view and is not retroactively
// applied to already-written dated files.
func (l *Log) Prune(now time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.window <= 0 {
		return 0, nil
	}
	cutoff := now.Add(-l.window)
	cutIndex := 0
	for cutIndex < len(l.records) && l.records[cutIndex].Timestamp.Before(cutoff) {
		cutIndex++
	}
	if cutIndex == 0 {
		return 0, nil
	}

	switch l.cut {
	case RetentionNewGenesis:
		l.records = l.records[cutIndex:]
		if len(l.records) > 0 {
			l.records[0].PreviousHash = genesisSentinel
		}
		return cutIndex, nil
	default: // RetentionRefuseAcrossCut
		return 0, runtime.NewMissionError("audit.Prune", runtime.KindAudit, "",
			fmt.Errorf("refusing to prune %d records: would break chain linkage (retention cut behavior is RefuseAcrossCut)", cutIndex))
	}
}

// Dir returns the directory this log persists into.
func (l *Log) Dir() string { return l.dir }

// Len returns the number of records currently held in memory.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
