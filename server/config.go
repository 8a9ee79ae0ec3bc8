package server

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/eggeek/oracle-search/routing"
	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/exp/slog"
	"gopkg.in/yaml.v3"
)

//*******************************************
// per-request search parameters
//*******************************************

// SearchParams is the config blob at the head of every request frame.
// Every frame is self-contained; nothing carries over between requests.
type SearchParams struct {
	HScale      float64 `json:"hscale"`
	Time        float64 `json:"time"`
	Itrs        uint64  `json:"itrs"`
	KMoves      int     `json:"k_moves"`
	FScale      float64 `json:"fscale"`
	Threads     int     `json:"threads"`
	ThreadAlloc bool    `json:"thread_alloc"`
	NoCache     bool    `json:"no_cache"`
	Verbose     bool    `json:"verbose"`
	Debug       bool    `json:"debug"`
}

func DefaultSearchParams() SearchParams {
	return SearchParams{
		HScale:  1.0,
		Time:    float64(time.Hour.Nanoseconds()),
		Itrs:    math.MaxUint64,
		KMoves:  0,
		FScale:  1.0,
		Threads: runtime.NumCPU(),
	}
}

func (self *SearchParams) Sanitise(max_threads int) {
	if self.HScale < 1.0 {
		self.HScale = 1.0
	}
	if self.FScale < 1.0 {
		self.FScale = 1.0
	}
	if self.Time <= 0 {
		self.Time = float64(time.Hour.Nanoseconds())
	}
	if self.Itrs == 0 {
		self.Itrs = math.MaxUint64
	}
	if self.KMoves < 0 {
		self.KMoves = 0
	}
	if self.Threads < 1 {
		self.Threads = 1
	}
	if self.Threads > max_threads {
		self.Threads = max_threads
	}
}

func (self *SearchParams) ToSearchConfig() routing.SearchConfig {
	return routing.SearchConfig{
		HScale:        self.HScale,
		MaxTime:       time.Duration(int64(self.Time)),
		MaxExpansions: self.Itrs,
		MaxKMoves:     self.KMoves,
		FScale:        self.FScale,
	}
}

// ParseSearchParams decodes the leading JSON value of a request frame
// and returns the unread remainder. A malformed blob falls back to
// defaults; the remainder then starts after the first line so the path
// tokens are still readable.
func ParseSearchParams(data []byte) (SearchParams, []byte) {
	params := DefaultSearchParams()
	dec := sonnet.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&params); err != nil {
		slog.Warn("malformed config frame, falling back to defaults: " + err.Error())
		params = DefaultSearchParams()
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			return params, data[i+1:]
		}
		return params, nil
	}
	return params, data[dec.InputOffset():]
}

//*******************************************
// server options
//*******************************************

// Options are the process-level settings, readable from a yaml file
// with command-line flags taking precedence.
type Options struct {
	Input     string `yaml:"input"`
	Fifo      string `yaml:"fifo"`
	Alg       string `yaml:"alg"`
	OutDir    string `yaml:"outdir"`
	Method    string `yaml:"partmethod"`
	PartKey   int    `yaml:"partkey"`
	WID       int    `yaml:"wid"`
	MaxWorker int    `yaml:"maxworker"`
	Metrics   string `yaml:"metrics"`
}

func ReadOptions(file string) (Options, error) {
	slog.Info("Reading config file")
	data, err := os.ReadFile(file)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read config file: %w", err)
	}
	var options Options
	if err := yaml.Unmarshal(data, &options); err != nil {
		return Options{}, err
	}
	return options, nil
}
