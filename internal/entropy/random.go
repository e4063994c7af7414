// Package entropy supplies the uniform deviates that drive every stochastic
// decision in the simulation. The engine only sees the Source interface, so a
// run is reproducible whenever the source is.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	mrand "math/rand/v2"
	"net/http"
	"sync"
	"time"
)

// Source is a stream of uniform random draws.
type Source interface {
	// Float returns a value in [0, 1).
	Float() float64
	// IntRange returns an integer in [lo, hi], both inclusive.
	IntRange(lo, hi int) int
	// Uniform returns a value in [lo, hi).
	Uniform(lo, hi float64) float64
}

// intFromFloat maps a [0,1) deviate onto [lo, hi]. Every Source derives its
// integer draws this way so a scripted stream can stand in for a seeded one.
func intFromFloat(f float64, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	n := lo + int(f*float64(hi-lo+1))
	if n > hi {
		n = hi
	}
	return n
}

func uniformFromFloat(f, lo, hi float64) float64 {
	return lo + (hi-lo)*f
}

// Seeded is a deterministic PCG-backed source.
type Seeded struct {
	rng *mrand.Rand
}

// NewSeeded creates a source whose draw sequence depends only on seed.
func NewSeeded(seed int64) *Seeded {
	// Non-cryptographic PRNG is intentional for deterministic simulation behavior.
	// #nosec G404
	return &Seeded{rng: mrand.New(mrand.NewPCG(seedWord(seed, "a"), seedWord(seed, "b")))}
}

func seedWord(seed int64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", seed, salt)))
	return h.Sum64()
}

func (s *Seeded) Float() float64 { return s.rng.Float64() }

func (s *Seeded) IntRange(lo, hi int) int { return intFromFloat(s.Float(), lo, hi) }

func (s *Seeded) Uniform(lo, hi float64) float64 { return uniformFromFloat(s.Float(), lo, hi) }

// Sequence replays a fixed list of deviates, then repeats the last one.
// Used to pin down exact draw outcomes in tests.
type Sequence struct {
	values []float64
	pos    int
}

// NewSequence creates a scripted source. An empty list yields 0.5 forever.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (q *Sequence) Float() float64 {
	if len(q.values) == 0 {
		return 0.5
	}
	if q.pos >= len(q.values) {
		return q.values[len(q.values)-1]
	}
	v := q.values[q.pos]
	q.pos++
	return v
}

func (q *Sequence) IntRange(lo, hi int) int { return intFromFloat(q.Float(), lo, hi) }

func (q *Sequence) Uniform(lo, hi float64) float64 { return uniformFromFloat(q.Float(), lo, hi) }

// Drawn reports how many scripted values have been consumed.
func (q *Sequence) Drawn() int { return q.pos }

// Weighted picks an index with probability proportional to weights[i].
func Weighted(src Source, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 || len(weights) == 0 {
		return 0
	}
	target := src.Float() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if target < acc {
			return i
		}
	}
	return len(weights) - 1
}

const (
	randomOrgEndpoint = "https://api.random.org/json-rpc/4/invoke"
	poolBatch         = 100 // fractions requested per refill
	poolLowWater      = 10  // refill before the pool runs dry
)

// Client draws the ecosystem's deviates from random.org's atmospheric noise
// for live runs. Draws are pooled and the client falls back to crypto/rand
// whenever the service is unreachable, so a live day never blocks on it.
// A live run cannot be replayed; use Seeded for reproducible runs.
type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client

	mu   sync.Mutex
	pool []float64
}

// NewClient returns nil when apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: randomOrgEndpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Float pops the next pooled fraction.
func (c *Client) Float() float64 {
	if c == nil {
		return cryptoFloat()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) < poolLowWater {
		added, err := c.refill()
		if err != nil {
			slog.Debug("random.org refill failed, using crypto/rand", "pooled", len(c.pool), "error", err)
		} else {
			slog.Debug("random.org pool refilled", "added", added)
		}
	}
	if len(c.pool) == 0 {
		return cryptoFloat()
	}

	f := c.pool[0]
	c.pool = c.pool[1:]
	return f
}

func (c *Client) IntRange(lo, hi int) int { return intFromFloat(c.Float(), lo, hi) }

func (c *Client) Uniform(lo, hi float64) float64 { return uniformFromFloat(c.Float(), lo, hi) }

type fractionsRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  fractionsParams `json:"params"`
	ID      int             `json:"id"`
}

type fractionsParams struct {
	APIKey        string `json:"apiKey"`
	N             int    `json:"n"`
	DecimalPlaces int    `json:"decimalPlaces"`
}

type fractionsResponse struct {
	Result struct {
		Random struct {
			Data []float64 `json:"data"`
		} `json:"random"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// refill appends one batch of fractions to the pool. Caller holds mu.
func (c *Client) refill() (int, error) {
	body, err := json.Marshal(fractionsRequest{
		JSONRPC: "2.0",
		Method:  "generateDecimalFractions",
		Params:  fractionsParams{APIKey: c.apiKey, N: poolBatch, DecimalPlaces: 6},
		ID:      1,
	})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.http.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	var out fractionsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return 0, fmt.Errorf("random.org error %d: %s", out.Error.Code, out.Error.Message)
	}

	added := 0
	for _, f := range out.Result.Random.Data {
		if f >= 0 && f < 1 {
			c.pool = append(c.pool, f)
			added++
		}
	}
	return added, nil
}

// cryptoFloat is a uniform [0, 1) deviate from the top 53 bits of 8 crypto bytes.
func cryptoFloat() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0.5
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) / (1 << 53)
}

// Enabled reports whether the client will contact random.org at all.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// FromConfig returns a random.org client when a key is configured, otherwise
// a seeded source.
func FromConfig(apiKey string, seed int64) Source {
	if c := NewClient(apiKey); c.Enabled() {
		return c
	}
	return NewSeeded(seed)
}
