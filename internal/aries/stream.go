package aries

import (
	"strings"
	"time"

	"github.com/sells-group/aries-import/internal/model"
)

// StreamResult carries the stream-section outputs. Either document may be
// nil when the section held no rows for it.
type StreamResult struct {
	Risking *model.RiskingDocument
	Stream  *model.StreamPropertiesDocument
}

// StreamExtractor interprets the forecast/stream section: BTU content, gas
// and oil shrinkage, NGL and condensate yields, and per-phase risk
// multipliers. The overlay resolver patches the documents this builder
// produces.
type StreamExtractor struct {
	ctx *ExtractionContext

	startDate time.Time
	risking   *model.RiskingDocument
	stream    *model.StreamPropertiesDocument
	sawRisk   bool
	sawStream bool
	cursors   map[string]*segCursor
}

func NewStreamExtractor(ctx *ExtractionContext) *StreamExtractor {
	return &StreamExtractor{
		ctx:       ctx,
		startDate: ctx.BaseDate,
		risking:   DefaultRisking(),
		stream:    DefaultStreamProperties(),
		cursors:   make(map[string]*segCursor),
	}
}

// Name implements Extractor.
func (x *StreamExtractor) Name() string { return model.KindStreamProperties }

func (x *StreamExtractor) Extract(records []model.EconomicRecord) *StreamResult {
	for _, r := range records {
		kw := strings.ToUpper(r.Keyword)
		base, suffix, _ := strings.Cut(kw, "/")
		switch {
		case kw == "START":
			x.applyStart(r)
		case kw == "BTU":
			x.btuRow(r)
		case base == "SHK" || base == "SHRINK":
			x.shrinkRow(r, suffix)
		case base == "NGL":
			x.yieldRow(r, model.PhaseNGL)
		case base == "CND" || base == "COND":
			x.yieldRow(r, model.PhaseDripCondensate)
		case base == "RISK" || base == "MUL":
			x.riskRow(r, suffix)
		case kw == "TEXT":
			// annotation row
		default:
			x.ctx.LogWarning(r, model.KindStreamProperties, "keyword not in stream grammar, row ignored")
		}
	}

	res := &StreamResult{}
	if x.sawRisk {
		res.Risking = x.risking
	}
	if x.sawStream {
		res.Stream = x.stream
	}
	return res
}

func (x *StreamExtractor) applyStart(r model.EconomicRecord) {
	ls, ok := x.ctx.Tokenize(r, model.KindStreamProperties)
	if !ok {
		return
	}
	mmYYYY, ok := ReadStart(strings.Join(ls, " "), x.ctx.BaseDate)
	if !ok {
		x.ctx.LogWarning(r, model.KindStreamProperties, "unreadable START date, using base date")
		x.startDate = x.ctx.BaseDate
		return
	}
	if t, err := time.Parse("01/2006", mmYYYY); err == nil {
		x.startDate = t
	}
}

func (x *StreamExtractor) cursorFor(key string) *segCursor {
	if c, ok := x.cursors[key]; ok {
		return c
	}
	c := newSegCursor(StartOfMonth(x.startDate))
	x.cursors[key] = c
	return c
}

func (x *StreamExtractor) btuRow(r model.EconomicRecord) {
	ls, ok := x.ctx.Tokenize(r, model.KindStreamProperties)
	if !ok {
		return
	}
	v, numOK := TryParseNumber(Token(ls, 0))
	if !numOK {
		x.ctx.LogError(r, model.KindStreamProperties, "non-numeric BTU content "+Token(ls, 0))
		return
	}
	x.sawStream = true
	x.stream.BTUContent.UnshrunkGas = v
	x.stream.BTUContent.ShrunkGas = v
}

// shrinkRow records a percent-remaining segment. The stored value is the
// share of gas surviving shrink; FRAC inputs scale to percent.
func (x *StreamExtractor) shrinkRow(r model.EconomicRecord, suffix string) {
	ls, ok := x.ctx.Tokenize(r, model.KindStreamProperties)
	if !ok {
		return
	}
	v, numOK := TryParseNumber(Token(ls, 0))
	if !numOK {
		x.ctx.LogError(r, model.KindStreamProperties, "non-numeric shrink value "+Token(ls, 0))
		return
	}
	if strings.EqualFold(Token(ls, 2), "FRAC") || v <= 1 {
		v *= 100
	}

	phase := model.PhaseGas
	if suffix == "OIL" {
		phase = model.PhaseOil
	}
	x.sawStream = true
	cur := x.cursorFor("shrink/" + phase)
	row := model.ShrinkageRow{PctRemaining: v}
	applyCutoff(x.ctx, r, ls, cur, &row.Schedule, model.KindStreamProperties)
	if row.Dates == nil && row.CumVolume == nil {
		return
	}
	if phase == model.PhaseOil {
		x.stream.Shrinkage.Oil.Rows = append(x.stream.Shrinkage.Oil.Rows, row)
	} else {
		x.stream.Shrinkage.Gas.Rows = append(x.stream.Shrinkage.Gas.Rows, row)
	}
}

// yieldRow records a liquids yield segment (barrels per MMcf). An SHK unit
// marks the yield as computed off shrunk gas.
func (x *StreamExtractor) yieldRow(r model.EconomicRecord, phase string) {
	ls, ok := x.ctx.Tokenize(r, model.KindStreamProperties)
	if !ok {
		return
	}
	v, numOK := TryParseNumber(Token(ls, 0))
	if !numOK {
		x.ctx.LogError(r, model.KindStreamProperties, "non-numeric yield value "+Token(ls, 0))
		return
	}
	shrunk := model.GasUnshrunk
	if strings.EqualFold(Token(ls, 2), "SHK") {
		shrunk = model.GasShrunk
	}

	x.sawStream = true
	cur := x.cursorFor("yield/" + phase)
	row := model.YieldRow{YieldValue: v, ShrunkGas: shrunk}
	applyCutoff(x.ctx, r, ls, cur, &row.Schedule, model.KindStreamProperties)
	if row.Dates == nil && row.CumVolume == nil {
		return
	}
	if phase == model.PhaseNGL {
		x.stream.Yields.NGL.Rows = append(x.stream.Yields.NGL.Rows, row)
	} else {
		x.stream.Yields.DripCondensate.Rows = append(x.stream.Yields.DripCondensate.Rows, row)
	}
}

func (x *StreamExtractor) riskRow(r model.EconomicRecord, suffix string) {
	ls, ok := x.ctx.Tokenize(r, model.KindStreamProperties)
	if !ok {
		return
	}
	phase, pok := phaseFromSuffix(suffix)
	if !pok {
		x.ctx.LogWarning(r, model.KindRisking, "unsupported risk phase "+suffix)
		return
	}
	v, numOK := TryParseNumber(Token(ls, 0))
	if !numOK {
		x.ctx.LogError(r, model.KindRisking, "non-numeric risk multiplier "+Token(ls, 0))
		return
	}
	// percent risks normalize to a multiplier; FRAC already is one
	if strings.EqualFold(Token(ls, 2), "%") {
		v /= 100
	}

	x.sawRisk = true
	cur := x.cursorFor("risk/" + phase)
	row := model.RiskRow{Multiplier: v}
	applyCutoff(x.ctx, r, ls, cur, &row.Schedule, model.KindRisking)
	if row.Dates == nil {
		return
	}
	pr := x.risking.Risking.Phase(phase)
	pr.Rows = foldRiskRows(pr.Rows, row)
}

// foldRiskRows merges a new risk segment into the phase's rows. A segment
// covering the same window multiplies into the existing row; otherwise it
// appends. Overlay risk patches reuse this.
func foldRiskRows(rows []model.RiskRow, add model.RiskRow) []model.RiskRow {
	for i := range rows {
		if rows[i].Dates != nil && add.Dates != nil &&
			rows[i].Dates.StartDate == add.Dates.StartDate &&
			rows[i].Dates.EndDate == add.Dates.EndDate {
			rows[i].Multiplier *= add.Multiplier
			return rows
		}
	}
	return append(rows, add)
}
