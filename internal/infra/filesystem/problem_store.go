// Package filesystem serves problem bundles and the index ledger from local disk.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"daily-problem-service/internal/domain"
)

// Bundle artifact names inside each <dir>/<index>/ directory.
const (
	ImageFile       = "problem.png"
	DescriptionFile = "description.txt"
	HintFile        = "hint.txt"
	AnswerFile      = "answer.txt"
)

// DefaultAssetPrefix is the URL prefix the image reference is built from.
const DefaultAssetPrefix = "/problems"

// ProblemStore reads bundles from <dir>/<index>/. Nothing is cached: every
// call re-validates the bundle, so content edits show up on the next request.
type ProblemStore struct {
	dir         string
	assetPrefix string
}

func NewProblemStore(dir, assetPrefix string) *ProblemStore {
	if assetPrefix == "" {
		assetPrefix = DefaultAssetPrefix
	}
	return &ProblemStore{dir: dir, assetPrefix: strings.TrimRight(assetPrefix, "/")}
}

// Dir returns the root of the problems tree.
func (s *ProblemStore) Dir() string {
	return s.dir
}

func (s *ProblemStore) LoadProblem(_ context.Context, index int) (domain.Problem, error) {
	if index < domain.FirstIndex {
		return domain.Problem{}, fmt.Errorf("%w: index %d: %v", domain.ErrProblemNotFound, index, domain.ErrInvalidIndex)
	}
	bundle := filepath.Join(s.dir, strconv.Itoa(index))

	if err := requireFile(filepath.Join(bundle, ImageFile)); err != nil {
		return domain.Problem{}, fmt.Errorf("%w: index %d: %v", domain.ErrProblemNotFound, index, err)
	}
	description, err := readFile(filepath.Join(bundle, DescriptionFile))
	if err != nil {
		return domain.Problem{}, fmt.Errorf("%w: index %d: %v", domain.ErrProblemNotFound, index, err)
	}
	hint, err := readFile(filepath.Join(bundle, HintFile))
	if err != nil {
		return domain.Problem{}, fmt.Errorf("%w: index %d: %v", domain.ErrProblemNotFound, index, err)
	}
	answer, err := readFile(filepath.Join(bundle, AnswerFile))
	if err != nil {
		return domain.Problem{}, fmt.Errorf("%w: index %d: %v", domain.ErrProblemNotFound, index, err)
	}

	return domain.Problem{
		Index:       index,
		Image:       path.Join(s.assetPrefix, strconv.Itoa(index), ImageFile),
		Description: description,
		Hint:        hint,
		Answer:      strings.TrimSpace(answer),
	}, nil
}

func requireFile(name string) error {
	info, err := os.Stat(name)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", name)
	}
	return nil
}

func readFile(name string) (string, error) {
	if err := requireFile(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
