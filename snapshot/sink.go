package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/hupe1980/matdisco/blobstore"
	"github.com/hupe1980/matdisco/codec"
	"github.com/hupe1980/matdisco/dataset"
	"github.com/hupe1980/matdisco/internal/resource"
)

// ErrBadName is returned for a blob name that is not a snapshot name.
var ErrBadName = errors.New("snapshot: not a snapshot blob name")

// Format is the table encoding of a snapshot blob.
type Format uint8

const (
	// FormatCSV writes formula, features..., target.
	FormatCSV Format = iota
	// FormatJSON writes the dataset.Table with the configured codec.
	FormatJSON
)

// String returns the name used in settings and flags.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// ParseFormat parses a format name. "" means csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("snapshot: unknown format %q", s)
	}
}

// Sink writes snapshots to a blob store. It implements
// matdisco.SnapshotSink and is safe for concurrent use if the store is.
type Sink struct {
	store       blobstore.BlobStore
	format      Format
	compression Compression
	codec       codec.Codec
	rc          *resource.Controller
}

// Option configures a Sink.
type Option func(*Sink)

// WithFormat sets the table encoding. Default is CSV.
func WithFormat(f Format) Option {
	return func(s *Sink) { s.format = f }
}

// WithCompression sets the stream compressor. Default is none.
func WithCompression(c Compression) Option {
	return func(s *Sink) { s.compression = c }
}

// WithCodec sets the codec used by FormatJSON. Default is codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(s *Sink) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithIOLimit throttles snapshot writes to bytesPerSec. Zero disables the
// limit.
func WithIOLimit(bytesPerSec int64) Option {
	return func(s *Sink) {
		s.rc = resource.NewController(resource.Config{IOLimitBytesPerSec: bytesPerSec})
	}
}

// NewSink creates a Sink writing to store.
func NewSink(store blobstore.BlobStore, optFns ...Option) *Sink {
	s := &Sink{
		store: store,
		codec: codec.Default,
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Name returns the blob name of snapshot seq of run runID.
func (s *Sink) Name(runID string, seq int) string {
	return Name(runID, seq, s.format, s.compression)
}

// Save encodes t and stores it under Name(runID, seq).
func (s *Sink) Save(ctx context.Context, runID string, seq int, t *dataset.Table) error {
	if runID == "" || strings.Contains(runID, "/") {
		return fmt.Errorf("snapshot: invalid run id %q", runID)
	}

	var buf bytes.Buffer
	cw, err := compressWriter(resource.NewRateLimitedWriter(ctx, &buf, s.rc), s.compression)
	if err != nil {
		return err
	}
	if err := s.encode(cw, t); err != nil {
		_ = cw.Close()
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("snapshot: compress: %w", err)
	}
	return s.store.Put(ctx, s.Name(runID, seq), buf.Bytes())
}

func (s *Sink) encode(w io.Writer, t *dataset.Table) error {
	switch s.format {
	case FormatCSV:
		return dataset.WriteCSV(w, t)
	case FormatJSON:
		data, err := s.codec.Marshal(t)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %d", uint8(s.format))
	}
}

// Load reads snapshot seq of run runID, whatever format it was written in.
func (s *Sink) Load(ctx context.Context, runID string, seq int) (*dataset.Table, error) {
	return Load(ctx, s.store, runID, seq, s.codec)
}

// List returns the blob names of a run's snapshots in sequence order.
func List(ctx context.Context, store blobstore.BlobStore, runID string) ([]string, error) {
	names, err := store.List(ctx, RunPrefix(runID))
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if _, _, _, _, err := ParseName(n); err == nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// Load finds snapshot seq of run runID in store and decodes it. JSON
// blobs are decoded with c, or codec.Default when c is nil.
func Load(ctx context.Context, store blobstore.BlobStore, runID string, seq int, c codec.Codec) (*dataset.Table, error) {
	names, err := store.List(ctx, fmt.Sprintf("%ssnapshot-%04d.", RunPrefix(runID), seq))
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if _, gotSeq, _, _, err := ParseName(name); err == nil && gotSeq == seq {
			return Read(ctx, store, name, c)
		}
	}
	return nil, fmt.Errorf("snapshot %d of run %q: %w", seq, runID, blobstore.ErrNotFound)
}

// Read decodes the snapshot blob name. JSON snapshots keep the name of the
// saved table; CSV carries no name, so the table is named after the
// snapshot, for example "snapshot-0003".
func Read(ctx context.Context, store blobstore.BlobStore, name string, c codec.Codec) (*dataset.Table, error) {
	_, seq, format, compression, err := ParseName(name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = codec.Default
	}

	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, err
	}
	if data, err = decompress(data, compression); err != nil {
		return nil, fmt.Errorf("snapshot: decompress %q: %w", name, err)
	}

	switch format {
	case FormatJSON:
		var t dataset.Table
		if err := c.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("snapshot: decode %q: %w", name, err)
		}
		return &t, nil
	default:
		t, err := dataset.ReadCSV(bytes.NewReader(data), fmt.Sprintf("snapshot-%04d", seq))
		if err != nil {
			return nil, fmt.Errorf("snapshot: decode %q: %w", name, err)
		}
		return t, nil
	}
}

// RunPrefix returns the blob name prefix shared by a run's snapshots.
func RunPrefix(runID string) string {
	return path.Join("runs", runID) + "/"
}

// Name returns the blob name for snapshot seq of run runID.
func Name(runID string, seq int, f Format, c Compression) string {
	return fmt.Sprintf("%ssnapshot-%04d.%s%s", RunPrefix(runID), seq, f, c.ext())
}

var nameRE = regexp.MustCompile(`^runs/([^/]+)/snapshot-(\d{4,})\.(csv|json)(\.zst|\.lz4)?$`)

// ParseName splits a snapshot blob name into its parts.
func ParseName(name string) (runID string, seq int, f Format, c Compression, err error) {
	m := nameRE.FindStringSubmatch(name)
	if m == nil {
		return "", 0, 0, 0, fmt.Errorf("%w: %q", ErrBadName, name)
	}
	if seq, err = strconv.Atoi(m[2]); err != nil {
		return "", 0, 0, 0, fmt.Errorf("%w: %q", ErrBadName, name)
	}
	if f, err = ParseFormat(m[3]); err != nil {
		return "", 0, 0, 0, err
	}
	if c, err = ParseCompression(strings.TrimPrefix(m[4], ".")); err != nil {
		return "", 0, 0, 0, err
	}
	return m[1], seq, f, c, nil
}
