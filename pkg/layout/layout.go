package layout

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/mindmap"
)

// Algorithm names a layout strategy.
type Algorithm string

const (
	MindMap  Algorithm = "mindmap"
	Radial   Algorithm = "radial"
	TreeDown Algorithm = "tree"
	Organic  Algorithm = "organic"
	Force    Algorithm = "force"
	Circle   Algorithm = "circle"
	Grid     Algorithm = "grid"
)

// Default is the algorithm used when none is named.
const Default = MindMap

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{MindMap, Radial, TreeDown, Organic, Force, Circle, Grid}

// ParseAlgorithm resolves a case-insensitive algorithm name. An empty name
// selects Default.
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Default, nil
	}
	if alg := Algorithm(name); slices.Contains(Algorithms, alg) {
		return alg, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown layout algorithm %q", name)
}

// Tree is the read-only view of the hierarchy that layout needs.
// *mindmap.Store and Outline both satisfy it.
type Tree interface {
	Root() string
	Children(id string) []string
}

// Positions maps node IDs to canvas coordinates.
type Positions map[string]mindmap.Position

// Config holds layout inputs. Apply never modifies it.
type Config struct {
	SiblingSpacing float64          `toml:"sibling_spacing" json:"sibling_spacing" validate:"gt=0"`
	LevelSpacing   float64          `toml:"level_spacing" json:"level_spacing" validate:"gt=0"`
	Width          float64          `toml:"width" json:"width" validate:"gt=0"`
	Height         float64          `toml:"height" json:"height" validate:"gt=0"`
	Center         mindmap.Position `toml:"center" json:"center"`
	Padding        float64          `toml:"padding" json:"padding" validate:"gte=0"`
	Iterations     int              `toml:"iterations" json:"iterations" validate:"gte=0"`
	MinSeparation  float64          `toml:"min_separation" json:"min_separation" validate:"gte=0"`
}

// DefaultConfig returns the settings used when none are supplied.
func DefaultConfig() Config {
	return Config{
		SiblingSpacing: 60,
		LevelSpacing:   200,
		Width:          1600,
		Height:         1200,
		Center:         mindmap.Position{X: 800, Y: 600},
		Padding:        40,
		Iterations:     100,
		MinSeparation:  30,
	}
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		return name
	})
	return v
}()

// Validate checks that spacings and bounds are usable.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate layout config")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		switch fe.Tag() {
		case "gt":
			msgs[i] = fmt.Sprintf("%s must be greater than %s, got %v", fe.Field(), fe.Param(), fe.Value())
		case "gte":
			msgs[i] = fmt.Sprintf("%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
		default:
			msgs[i] = fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
		}
	}
	return errors.New(errors.ErrCodeInvalidConfig, "layout: %s", strings.Join(msgs, "; "))
}

// Apply lays out every node reachable from tree.Root() with the given
// algorithm. An empty algorithm selects Default.
func Apply(tree Tree, alg Algorithm, cfg Config) (Positions, error) {
	if alg == "" {
		alg = Default
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := index(tree)
	if len(t.order) == 0 {
		return Positions{}, nil
	}

	var pos Positions
	switch alg {
	case MindMap:
		pos = mindMap(t, cfg)
	case Radial:
		pos = radial(t, cfg)
	case TreeDown:
		pos = levels(t, cfg)
	case Organic:
		pos = relax(t, radial(t, cfg), organicPasses, cfg)
	case Force:
		pos = relax(t, circle(t, cfg), cfg.Iterations, cfg)
	case Circle:
		pos = circle(t, cfg)
	case Grid:
		pos = grid(t, cfg)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown layout algorithm %q", alg)
	}

	if cfg.MinSeparation > 0 {
		pos = Optimize(pos, cfg.MinSeparation, MaxOptimizeIterations)
	}
	return pos, nil
}
