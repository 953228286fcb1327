// Package dictionary holds the set of two-word phrases the game accepts.
package dictionary

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wfunc/wordchain/logger"
)

var (
	ErrLoad            = errors.New("dictionary: load failed")
	ErrNotLoaded       = errors.New("dictionary: not loaded")
	ErrEmptyDictionary = errors.New("dictionary: no phrases available")
)

// SampleFile 是目录中没有任何 .txt 文件时写入的示例词典
const SampleFile = "vietdict.txt"

var samplePhrases = []string{
	"xanh lá", "lá cây", "cây cao", "cao ráo", "ráo riết",
	"riết mình", "mình tôi", "tôi đây", "đây rồi", "rồi sao",
	"sao đây", "đây đó", "đó đây", "đây kìa", "kìa này",
	"này nọ", "nọ kia", "kia này", "này rồi", "rồi nhé",
	"nhé anh", "anh ơi", "ơi là", "là gì", "gì đây",
	"đây mà", "mà sao", "sao vậy", "vậy nha", "nha bạn",
	"ủa gì", "gì vậy", "vậy thôi", "thôi được", "được rồi",
	"lung linh", "linh tinh", "tinh nghịch", "nghịch ngợm", "ngợm tính",
	"tính toán", "toán học", "học hành", "hành động", "động lực",
	"lực lượng", "lượng từ", "từ ngữ", "ngữ pháp", "pháp luật",
}

// Dictionary is safe for concurrent use. Loading replaces the whole phrase set.
type Dictionary struct {
	mu      sync.RWMutex
	phrases map[string]struct{}
	ordered []string            // snapshot used for uniform random picks
	byFirst map[string][]string // first token -> phrases
	loaded  bool
	pick    func(n int) int
}

func New() *Dictionary {
	return &Dictionary{
		phrases: make(map[string]struct{}),
		byFirst: make(map[string][]string),
		pick:    rand.Intn,
	}
}

// SetPicker overrides the random index source, pick(n) must return a value in [0, n).
func (d *Dictionary) SetPicker(pick func(n int) int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pick = pick
}

// Normalize trims, collapses internal whitespace and lowercases s.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Split returns the two tokens of a phrase after normalization.
func Split(phrase string) (first, second string, ok bool) {
	tokens := strings.Fields(Normalize(phrase))
	if len(tokens) != 2 {
		return "", "", false
	}
	return tokens[0], tokens[1], true
}

// Load parses newline-delimited sources. Only lines with exactly two tokens are kept.
func (d *Dictionary) Load(sources ...io.Reader) error {
	if len(sources) == 0 {
		return fmt.Errorf("%w: no sources", ErrLoad)
	}

	phrases := make(map[string]struct{})
	var ordered []string
	byFirst := make(map[string][]string)

	for i, src := range sources {
		scanner := bufio.NewScanner(src)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			first, second, ok := Split(scanner.Text())
			if !ok {
				continue
			}
			phrase := first + " " + second
			if _, exists := phrases[phrase]; exists {
				continue
			}
			phrases[phrase] = struct{}{}
			ordered = append(ordered, phrase)
			byFirst[first] = append(byFirst[first], phrase)
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("%w: source %d: %v", ErrLoad, i, err)
		}
	}

	d.mu.Lock()
	d.phrases = phrases
	d.ordered = ordered
	d.byFirst = byFirst
	d.loaded = true
	d.mu.Unlock()
	return nil
}

// LoadDir loads every *.txt file in dir, writing the sample dictionary first
// when the directory is missing or has no text files.
func (d *Dictionary) LoadDir(dir string) error {
	logger.Log.Infof("Loading dictionary from %s", dir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrLoad, err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoad, err)
	}

	if len(files) == 0 {
		logger.Log.Warnf("No dictionary files in %s, writing sample %s", dir, SampleFile)
		path, err := writeSample(dir)
		if err != nil {
			return err
		}
		files = []string{path}
	}
	sort.Strings(files)

	readers := make([]io.Reader, 0, len(files))
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			closeAll(readers)
			return fmt.Errorf("%w: %v", ErrLoad, err)
		}
		readers = append(readers, f)
	}
	defer closeAll(readers)

	if err := d.Load(readers...); err != nil {
		return err
	}
	logger.Log.Infof("Loaded %d phrases from %d file(s)", d.Size(), len(files))
	return nil
}

func writeSample(dir string) (string, error) {
	path := filepath.Join(dir, SampleFile)
	if err := os.WriteFile(path, []byte(strings.Join(samplePhrases, "\n")), 0o644); err != nil {
		return "", fmt.Errorf("%w: cannot write sample dictionary: %v", ErrLoad, err)
	}
	return path, nil
}

func closeAll(readers []io.Reader) {
	for _, r := range readers {
		if c, ok := r.(io.Closer); ok {
			c.Close()
		}
	}
}

// IsValidPhrase reports exact, case-insensitive membership.
func (d *Dictionary) IsValidPhrase(phrase string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.loaded {
		return false, ErrNotLoaded
	}
	_, ok := d.phrases[Normalize(phrase)]
	return ok, nil
}

// PhrasesStartingWith returns a copy of all phrases whose first token equals token.
func (d *Dictionary) PhrasesStartingWith(token string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	matches := d.byFirst[Normalize(token)]
	out := make([]string, len(matches))
	copy(out, matches)
	return out
}

func (d *Dictionary) RandomPhrase() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.loaded {
		return "", ErrNotLoaded
	}
	if len(d.ordered) == 0 {
		return "", ErrEmptyDictionary
	}
	return d.ordered[d.pick(len(d.ordered))], nil
}

func (d *Dictionary) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.phrases)
}
