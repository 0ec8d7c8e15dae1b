package aries

import (
	"strings"

	"github.com/sells-group/aries-import/internal/model"
)

// splitInterests is the raw lease-side or owner-side interest block carried
// by an LSE or OWN line: working interest, royalty, overriding royalty, and
// net profit interest, all in percent.
type splitInterests struct {
	seen    bool
	wi      float64
	royalty float64
	orri    float64
	npi     float64
}

// netInterests is the raw combined block carried by a NET line: working
// interest, per-phase net revenue interest, and net profit interest.
type netInterests struct {
	seen   bool
	wi     float64
	nriOil float64
	nriGas float64
	npi    float64
}

// reversionCutoff is the trigger condition parsed from a reversion line's
// tail tokens. Life means "no further change" and is valid only on the
// initial line of a block.
type reversionCutoff struct {
	kind  string
	value float64
	date  string
}

func (c reversionCutoff) matches(o reversionCutoff) bool {
	return c.kind == o.kind && c.value == o.value && c.date == o.date
}

// reversionPoint pairs one ladder entry's cutoff with the raw interest
// inputs that arrived for it. A point is complete when at least one side
// carries data; the resolved segment count must equal the point count or
// the whole ownership model is abandoned.
type reversionPoint struct {
	cutoff reversionCutoff
	net    *netInterests
	lse    *splitInterests
	own    *splitInterests
}

// resolvedInterests is one computed working-interest/NRI/lease-NRI/NPI
// tuple, either the initial block or a reversion segment's.
type resolvedInterests struct {
	wi       float64
	nriOil   float64
	nriGas   float64
	leaseNRI float64
	npi      float64
}

// OwnershipExtractor reconciles the NET/LSE/OWN/LOSS/OPNET interest blocks
// of the misc and ownership sections into a single ownership document with
// a reversion ladder. Unlike the other builders, several failure modes
// here are fatal for the whole model: an unsupported reversion cutoff or a
// ladder that cannot reconcile yields no document at all.
type OwnershipExtractor struct {
	ctx *ExtractionContext

	net netInterests
	lse splitInterests
	own splitInterests

	// leaseNRIOverride holds a LOSS or OPNET line's explicit lease NRI.
	leaseNRIOverride *float64
	// opnetDerived suppresses the zero-interest policy default: an OPNET
	// zero is a true zero, not missing data.
	opnetDerived bool

	points []reversionPoint
	failed bool
}

func NewOwnershipExtractor(ctx *ExtractionContext) *OwnershipExtractor {
	return &OwnershipExtractor{ctx: ctx}
}

// Name implements Extractor.
func (x *OwnershipExtractor) Name() string { return model.KindOwnership }

// Extract scans the ownership rows and resolves the document. Returns nil
// when extraction fails or no ownership data is present and no backup
// source covers the well.
func (x *OwnershipExtractor) Extract(records []model.EconomicRecord) *model.OwnershipDocument {
	for _, r := range records {
		if x.failed {
			break
		}
		switch base, _, _ := strings.Cut(strings.ToUpper(r.Keyword), "/"); base {
		case "NET":
			x.netRow(r)
		case "LSE":
			x.lseRow(r)
		case "OWN":
			x.ownRow(r)
		case "LOSS":
			x.lossRow(r, false)
		case "OPNET":
			x.lossRow(r, true)
		case "START", "TEXT":
			// carries no interest data
		default:
			x.ctx.LogWarning(r, model.KindOwnership, "keyword not in ownership grammar, row ignored")
		}
	}
	if x.failed {
		return nil
	}
	return x.finalize()
}

// blockValues reads the four leading interest values, scaling FRAC rows to
// percent and defaulting absent or unreadable positions to zero with a log
// entry. The carry-forward sentinel reuses prev.
func (x *OwnershipExtractor) blockValues(r model.EconomicRecord, ls []string, prev [4]float64) [4]float64 {
	out := prev
	scale := 1.0
	if strings.EqualFold(Token(ls, 4), "FRAC") {
		scale = 100.0
	}
	for i := 0; i < 4; i++ {
		tok := Token(ls, i)
		if tok == "" {
			x.ctx.LogWarning(r, model.KindOwnership, "short ownership expression, missing interest defaulted to 0")
			out[i] = 0
			continue
		}
		if IsCarryForward(tok) {
			continue
		}
		v, ok := TryParseNumber(tok)
		if !ok {
			x.ctx.LogError(r, model.KindOwnership, "non-numeric interest value "+tok+", defaulted to 0")
			out[i] = 0
			continue
		}
		out[i] = v * scale
	}
	return out
}

// parseReversionCutoff interprets the tail tokens after the unit. An empty
// tail, a TO LIFE pair, or a stray FRAC marker all mean life. Unsupported
// cutoff keywords are fatal: the legacy engine explicitly opts out of
// them, and a silently-defaulted reversion trigger would change economics.
func (x *OwnershipExtractor) parseReversionCutoff(r model.EconomicRecord, tail []string) (reversionCutoff, bool) {
	life := reversionCutoff{kind: model.CutoffLife}
	if len(tail) == 0 {
		return life, true
	}
	if strings.EqualFold(tail[0], "TO") {
		tail = tail[1:]
	}
	if len(tail) == 0 || strings.EqualFold(tail[0], "LIFE") || strings.EqualFold(tail[0], "FRAC") {
		return life, true
	}

	value, numOK := TryParseNumber(tail[0])
	unitTok := ""
	if len(tail) > 1 {
		unitTok = tail[1]
	}

	switch strings.ToUpper(unitTok) {
	case "PAYOUT", "PO":
		if !numOK {
			value = 1
		}
		return reversionCutoff{kind: model.CutoffPayoutWithInvestment, value: value}, true
	case "M$":
		if !numOK {
			x.ctx.LogError(r, model.KindOwnership, "non-numeric payout balance, ownership model abandoned")
			return reversionCutoff{}, false
		}
		return reversionCutoff{kind: model.CutoffPayoutWithoutInvestment, value: value * 1000}, true
	}

	kind, unit, known := ParseCutoffUnit(unitTok)
	if !known {
		x.ctx.LogError(r, model.KindOwnership, "unsupported reversion cutoff "+unitTok+", ownership model abandoned")
		return reversionCutoff{}, false
	}

	switch kind {
	case CutoffLife:
		return life, true
	case CutoffMonths, CutoffIncrMonths, CutoffYears, CutoffIncrYears:
		if !numOK {
			x.ctx.LogError(r, model.KindOwnership, "non-numeric reversion duration, ownership model abandoned")
			return reversionCutoff{}, false
		}
		months := int(value)
		if kind == CutoffYears || kind == CutoffIncrYears {
			y, m := DayMonthYearFromDecimal(value)
			months = y*12 + m
		}
		d := EndOfMonth(OffsetMonths(x.ctx.BaseDate, months-1))
		return reversionCutoff{kind: model.CutoffDate, date: FormatDate(d)}, true
	case CutoffAbsDate:
		t, err := ParseExpressionDate(tail[0])
		if err != nil {
			x.ctx.LogError(r, model.KindOwnership, "unreadable reversion date, ownership model abandoned")
			return reversionCutoff{}, false
		}
		return reversionCutoff{kind: model.CutoffDate, date: FormatDate(t)}, true
	case CutoffVolume:
		if !numOK {
			x.ctx.LogError(r, model.KindOwnership, "non-numeric reversion volume, ownership model abandoned")
			return reversionCutoff{}, false
		}
		if volumeIsGas(unit) {
			return reversionCutoff{kind: model.CutoffGasCum, value: value * volumeScale(unit)}, true
		}
		return reversionCutoff{kind: model.CutoffOilCum, value: value * volumeScale(unit)}, true
	}

	x.ctx.LogError(r, model.KindOwnership, "unsupported reversion cutoff "+unitTok+", ownership model abandoned")
	return reversionCutoff{}, false
}

// volumeIsGas splits the cumulative-volume units between the oil and gas
// wellhead counters.
func volumeIsGas(unit string) bool {
	switch unit {
	case "MCF", "MMF", "MMCF", "BCF", "MU", "MMU":
		return true
	}
	return false
}

// volumeScale converts a legacy volume unit into barrels or MCF.
func volumeScale(unit string) float64 {
	switch unit {
	case "MB", "MMF", "MU":
		return 1e3
	case "MMB", "BCF", "MMU":
		return 1e6
	}
	return 1
}

func (x *OwnershipExtractor) netRow(r model.EconomicRecord) {
	ls, ok := x.ctx.Tokenize(r, model.KindOwnership)
	if !ok {
		return
	}
	prev := [4]float64{x.net.wi, x.net.nriOil, x.net.nriGas, x.net.npi}
	v := x.blockValues(r, ls, prev)
	cut, cok := x.parseReversionCutoff(r, tailTokens(ls))
	if !cok {
		x.failed = true
		return
	}

	if !x.net.seen {
		x.net = netInterests{seen: true, wi: v[0], nriOil: v[1], nriGas: v[2], npi: v[3]}
		return
	}
	// A repeated NET line is a reversion continuation.
	n := &netInterests{seen: true, wi: v[0], nriOil: v[1], nriGas: v[2], npi: v[3]}
	x.points = append(x.points, reversionPoint{cutoff: cut, net: n})
}

func (x *OwnershipExtractor) lseRow(r model.EconomicRecord) {
	ls, ok := x.ctx.Tokenize(r, model.KindOwnership)
	if !ok {
		return
	}
	prev := [4]float64{x.lse.wi, x.lse.royalty, x.lse.orri, x.lse.npi}
	v := x.blockValues(r, ls, prev)
	cut, cok := x.parseReversionCutoff(r, tailTokens(ls))
	if !cok {
		x.failed = true
		return
	}

	if !x.lse.seen {
		x.lse = splitInterests{seen: true, wi: v[0], royalty: v[1], orri: v[2], npi: v[3]}
		return
	}
	l := &splitInterests{seen: true, wi: v[0], royalty: v[1], orri: v[2], npi: v[3]}
	x.points = append(x.points, reversionPoint{cutoff: cut, lse: l})
}

func (x *OwnershipExtractor) ownRow(r model.EconomicRecord) {
	ls, ok := x.ctx.Tokenize(r, model.KindOwnership)
	if !ok {
		return
	}
	prev := [4]float64{x.own.wi, x.own.royalty, x.own.orri, x.own.npi}
	v := x.blockValues(r, ls, prev)
	cut, cok := x.parseReversionCutoff(r, tailTokens(ls))
	if !cok {
		x.failed = true
		return
	}
	o := &splitInterests{seen: true, wi: v[0], royalty: v[1], orri: v[2], npi: v[3]}

	// The first life-cutoff OWN line is the baseline owner block. Later
	// OWN lines fill the matching reversion point's owner side, or open a
	// new point when the lease side never declared one (single LSE line,
	// many OWN lines).
	if !x.own.seen && cut.kind == model.CutoffLife {
		x.own = *o
		return
	}
	if !x.own.seen {
		x.own = *o
	}
	for i := range x.points {
		if x.points[i].own == nil && x.points[i].cutoff.matches(cut) {
			x.points[i].own = o
			return
		}
	}
	x.points = append(x.points, reversionPoint{cutoff: cut, own: o})
}

func (x *OwnershipExtractor) lossRow(r model.EconomicRecord, opnet bool) {
	ls, ok := x.ctx.Tokenize(r, model.KindOwnership)
	if !ok {
		return
	}
	v, numOK := TryParseNumber(Token(ls, 0))
	if !numOK {
		x.ctx.LogError(r, model.KindOwnership, "non-numeric lease NRI override, row ignored")
		return
	}
	if strings.EqualFold(Token(ls, 1), "FRAC") {
		v *= 100
	}
	x.leaseNRIOverride = model.F64(v)
	if opnet {
		x.opnetDerived = true
	}
}

// tailTokens returns the cutoff tail after the four interest positions and
// the unit token.
func tailTokens(ls []string) []string {
	if len(ls) <= 5 {
		return nil
	}
	return ls[5:]
}

// combine runs the lease/owner split formula. An owner block that never
// appeared means the owner holds the whole lease position.
func combine(lse, own splitInterests) resolvedInterests {
	if !own.seen {
		own = splitInterests{wi: 100, royalty: 100, orri: 100, npi: 100}
	}
	var out resolvedInterests
	if lse.wi > 100 {
		// Already-combined percentage signal.
		out.wi = own.wi
	} else {
		out.wi = lse.wi * own.wi / 100
	}
	nri := lse.wi*own.wi*(100-(lse.royalty+lse.orri))/10000 +
		lse.royalty*own.royalty/100 +
		lse.orri*own.orri/100
	out.nriOil = nri
	out.nriGas = nri
	out.leaseNRI = 100 - (lse.royalty + lse.orri)
	out.npi = lse.npi * own.npi / 100
	return out
}

// fromNet derives the lease NRI from a NET-only block: nri/wi, capped at
// 100. An NRI exceeding the WI is an inconsistent input; the policy
// constant substitutes.
func (x *OwnershipExtractor) fromNet(n netInterests) resolvedInterests {
	out := resolvedInterests{wi: n.wi, nriOil: n.nriOil, nriGas: n.nriGas, npi: n.npi}
	switch {
	case n.wi == 0:
		out.leaseNRI = x.ctx.LeaseNRIDefault()
	case n.nriOil > n.wi:
		x.ctx.Errors.Log("", "net NRI exceeds working interest, lease NRI set to policy default",
			x.ctx.ScenarioID, x.ctx.PropNum, model.KindOwnership, model.SectionOwnership, SeverityWarning)
		out.leaseNRI = x.ctx.LeaseNRIDefault()
	default:
		out.leaseNRI = n.nriOil / n.wi * 100
		if out.leaseNRI > 100 {
			out.leaseNRI = 100
		}
	}
	return out
}

// resolveInitial computes the pre-reversion interest block, or reports
// that no per-row source resolved it.
func (x *OwnershipExtractor) resolveInitial() (resolvedInterests, bool) {
	var out resolvedInterests
	switch {
	case x.lse.seen:
		out = combine(x.lse, x.own)
	case x.net.seen:
		out = x.fromNet(x.net)
	default:
		return out, false
	}
	if out.wi == 0 && !x.opnetDerived {
		out.leaseNRI = x.ctx.LeaseNRIDefault()
	}
	if x.leaseNRIOverride != nil {
		out.leaseNRI = *x.leaseNRIOverride
	}
	return out, true
}

// npiAttribution applies the legacy precedence for NPI typing: a pure-NPI
// owner block is revenue-typed; otherwise the NPI is an expense against
// the lease (or NET-derived) value.
func (x *OwnershipExtractor) npiAttribution(initial resolvedInterests) (string, float64) {
	if x.own.seen && x.own.wi == 0 && x.own.royalty == 0 && x.own.orri == 0 && x.own.npi != 0 {
		return model.NPITypeRevenue, initial.npi
	}
	if x.lse.seen {
		return model.NPITypeExpense, x.lse.npi
	}
	return model.NPITypeExpense, x.net.npi
}

// segmentFor resolves one reversion point against the running baseline
// blocks: sides the point did not restate carry forward.
func (x *OwnershipExtractor) segmentFor(p reversionPoint, lse, own splitInterests, net netInterests) model.ReversionSegment {
	if p.lse != nil {
		lse = *p.lse
	}
	if p.own != nil {
		own = *p.own
	}
	if p.net != nil {
		net = *p.net
	}

	var ri resolvedInterests
	if p.net != nil && p.lse == nil && p.own == nil {
		ri = x.fromNet(net)
	} else {
		ri = combine(lse, own)
	}

	seg := model.ReversionSegment{
		WorkingInterest:          ri.wi,
		NetRevenueInterest:       ri.nriOil,
		LeaseNetRevenueInterest:  ri.leaseNRI,
		Balance:                  "gross",
		IncludeNetProfitInterest: "yes",
		PrevSegmentCutoff:        p.cutoff.kind,
	}
	switch p.cutoff.kind {
	case model.CutoffDate:
		seg.Date = p.cutoff.date
	case model.CutoffOilCum:
		seg.WellHeadOilCum = model.F64(p.cutoff.value)
	case model.CutoffGasCum:
		seg.WellHeadGasCum = model.F64(p.cutoff.value)
	case model.CutoffPayoutWithInvestment:
		seg.PayoutWithInvestment = model.F64(p.cutoff.value)
	case model.CutoffPayoutWithoutInvestment:
		seg.PayoutWithoutInvestment = model.F64(p.cutoff.value)
	}
	return seg
}

func (x *OwnershipExtractor) finalize() *model.OwnershipDocument {
	initial, resolved := x.resolveInitial()
	if !resolved {
		backup := x.ctx.OwnershipBackup
		if backup == nil {
			if x.net.seen || x.lse.seen || x.own.seen || len(x.points) > 0 {
				x.ctx.Errors.Log("", "ownership interests unresolved and no backup source, model skipped",
					x.ctx.ScenarioID, x.ctx.PropNum, model.KindOwnership, model.SectionOwnership, SeverityError)
			}
			return nil
		}
		initial = resolvedInterests{
			wi:       100,
			nriOil:   backup.NRIOilOrFull() * 100,
			nriGas:   backup.NRIGasOrFull() * 100,
			leaseNRI: x.ctx.LeaseNRIDefault(),
		}
		x.ctx.Errors.Log("", "ownership resolved from project backup source",
			x.ctx.ScenarioID, x.ctx.PropNum, model.KindOwnership, model.SectionOwnership, SeverityWarning)
	}

	doc := DefaultOwnership()
	doc.Ownership.Initial.WorkingInterest = initial.wi
	doc.Ownership.Initial.NetRevenueInterestOil = initial.nriOil
	doc.Ownership.Initial.NetRevenueInterestGas = initial.nriGas
	doc.Ownership.Initial.LeaseNetRevenueInterest = initial.leaseNRI
	npiType, npiValue := x.npiAttribution(initial)
	doc.Ownership.Initial.NetProfitInterestType = npiType
	doc.Ownership.Initial.NetProfitInterest = npiValue

	lse, own, net := x.lse, x.own, x.net
	for _, p := range x.points {
		doc.Ownership.Reversions = append(doc.Ownership.Reversions, x.segmentFor(p, lse, own, net))
		// Carry the restated sides forward for subsequent segments.
		if p.lse != nil {
			lse = *p.lse
		}
		if p.own != nil {
			own = *p.own
		}
		if p.net != nil {
			net = *p.net
		}
	}

	return doc
}
