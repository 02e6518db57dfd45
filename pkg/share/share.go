// Package share encodes a built map into a self-contained token that a
// read-only view can decode without server state.
package share

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"decisionmap/domain/core/aggregates"
	"decisionmap/domain/core/entities"
	pkgerrors "decisionmap/pkg/errors"
)

// Summary is the selected option digest shown on the shared view
type Summary struct {
	OptionLossPct     int    `json:"optionLossPct"`
	PNRFlag           bool   `json:"pnrFlag"`
	PNRText           string `json:"pnrText,omitempty"`
	MainEffect        string `json:"mainEffect"`
	TotalFutureStates int    `json:"totalFutureStates"`
}

// Highlight lists the path of the selected option
type Highlight struct {
	NodeIDs []string `json:"nodeIds"`
	EdgeIDs []string `json:"edgeIds"`
}

// Payload is everything a shared map view needs
type Payload struct {
	Title               string                  `json:"title"`
	Context             string                  `json:"context"`
	SelectedOptionID    string                  `json:"selectedOptionId"`
	SelectedOptionLabel string                  `json:"selectedOptionLabel"`
	Summary             Summary                 `json:"summary"`
	Map                 *aggregates.DecisionMap `json:"map"`
	HighlightIDs        Highlight               `json:"highlightIds"`
	// GeneratedAt is unix milliseconds
	GeneratedAt int64 `json:"generatedAt"`
}

// ErrUnknownOption is returned when the selected option has no edges
var ErrUnknownOption = errors.New("share: option is not on the map")

// NewPayload builds the payload for optionID, or for the map's best option
// when optionID is empty.
func NewPayload(in entities.DecisionInput, m *aggregates.DecisionMap, optionID string, now time.Time) (Payload, error) {
	if m == nil {
		return Payload{}, ErrUnknownOption
	}
	if optionID == "" {
		optionID = m.Summary.BestForOptionsPreserved
	}
	metrics, ok := m.OptionMetrics(optionID)
	if !ok {
		return Payload{}, fmt.Errorf("%w: %q", ErrUnknownOption, optionID)
	}

	label := optionID
	if o, ok := in.OptionByID(optionID); ok {
		label = o.Label
	}
	mergedTitle := ""
	if n, ok := dominantMerged(m, optionID); ok {
		mergedTitle = n.Title
	}

	return Payload{
		Title:               in.Title,
		Context:             in.CurrentStateText,
		SelectedOptionID:    optionID,
		SelectedOptionLabel: label,
		Summary: Summary{
			OptionLossPct:     metrics.OptionLossPct,
			PNRFlag:           metrics.PNRFlag,
			PNRText:           metrics.PNRText,
			MainEffect:        MainEffect(metrics, mergedTitle),
			TotalFutureStates: m.Summary.TotalFutureStates,
		},
		Map:          m,
		HighlightIDs: optionPath(m, optionID),
		GeneratedAt:  now.UnixMilli(),
	}, nil
}

var mainEffects = map[string]string{
	"OT": "Ускорение за счёт организационной фиксации и снижения гибкости",
	"FS": "Фиксация стратегии через капитальные и архитектурные обязательства",
	"ST": "Быстрый прогресс ценой закрытия альтернативных направлений",
	"OS": "Закрепление структуры и стратегии ограничивающее манёвр",
	"FT": "Ускорение при росте затрат и временных обязательств",
	"FO": "Закрепление процессов через финансовые и организационные обязательства",
}

const defaultEffect = "Фиксация ключевых ограничений"

// maxMergedTitle keeps the appended convergence hint short
const maxMergedTitle = 26

// MainEffect names the two dominant irreversibility axes of an option and,
// when short enough, the merged state its paths converge on.
func MainEffect(metrics entities.EdgeMetrics, mergedTitle string) string {
	axes := []struct {
		key   string
		value int
	}{
		{"F", metrics.F}, {"T", metrics.T}, {"O", metrics.O}, {"S", metrics.S},
	}
	sort.SliceStable(axes, func(i, j int) bool { return axes[i].value > axes[j].value })
	pair := []string{axes[0].key, axes[1].key}
	sort.Strings(pair)

	base, ok := mainEffects[pair[0]+pair[1]]
	if !ok {
		base = defaultEffect
	}
	if mergedTitle != "" && utf8.RuneCountInString(mergedTitle) <= maxMergedTitle {
		return base + " Сходятся траектории в " + mergedTitle
	}
	return base
}

// dominantMerged is the merged node most of the option's edges reach, or
// the last merged node when the option reaches none.
func dominantMerged(m *aggregates.DecisionMap, optionID string) (entities.MapNode, bool) {
	merged := make(map[string]bool)
	var last string
	for _, n := range m.Nodes {
		if n.Type == entities.NodeTypeMerged {
			merged[n.ID] = true
			last = n.ID
		}
	}
	if len(merged) == 0 {
		return entities.MapNode{}, false
	}

	counts := make(map[string]int)
	var order []string
	for _, e := range m.Edges {
		if e.OptionID != optionID || !merged[e.Target] {
			continue
		}
		if counts[e.Target] == 0 {
			order = append(order, e.Target)
		}
		counts[e.Target]++
	}
	chosen := last
	best := 0
	for _, id := range order {
		if counts[id] > best {
			chosen, best = id, counts[id]
		}
	}
	return m.Node(chosen)
}

func optionPath(m *aggregates.DecisionMap, optionID string) Highlight {
	h := Highlight{NodeIDs: []string{}, EdgeIDs: []string{}}
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			h.NodeIDs = append(h.NodeIDs, id)
		}
	}
	for _, e := range m.Edges {
		if e.OptionID != optionID {
			continue
		}
		add(e.Source)
		add(e.Target)
		h.EdgeIDs = append(h.EdgeIDs, e.ID)
	}
	return h
}

// Codec turns payloads into URL-safe tokens. Without a secret tokens are
// unpadded base64url JSON; with one they are HS256 JWTs.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec creates a codec; an empty secret selects unsigned tokens
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Signed reports whether tokens carry a signature
func (c *Codec) Signed() bool { return len(c.secret) > 0 }

type claims struct {
	Payload Payload `json:"payload"`
	jwt.RegisteredClaims
}

// Encode produces a token for p
func (c *Codec) Encode(p Payload) (string, error) {
	if !c.Signed() {
		raw, err := json.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("failed to marshal share payload: %w", err)
		}
		return base64.RawURLEncoding.EncodeToString(raw), nil
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Payload: p,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Issuer:   "decisionmap",
			IssuedAt: jwt.NewNumericDate(c.now()),
		},
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign share token: %w", err)
	}
	return signed, nil
}

// Decode restores the payload; malformed or tampered tokens yield
// ErrInvalidShareToken.
func (c *Codec) Decode(token string) (Payload, error) {
	if !c.Signed() {
		raw, err := base64.RawURLEncoding.DecodeString(token)
		if err != nil {
			return Payload{}, pkgerrors.ErrInvalidShareToken
		}
		var p Payload
		if err := json.Unmarshal(raw, &p); err != nil || p.Map == nil {
			return Payload{}, pkgerrors.ErrInvalidShareToken
		}
		return p, nil
	}

	var cl claims
	_, err := jwt.ParseWithClaims(token, &cl, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer("decisionmap"))
	if err != nil || cl.Payload.Map == nil {
		return Payload{}, pkgerrors.ErrInvalidShareToken
	}
	return cl.Payload, nil
}
