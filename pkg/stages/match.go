package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"mediroute/pkg/geo"
	"mediroute/pkg/oracle"
	"mediroute/pkg/pipeline"
	"mediroute/pkg/registry"
	"mediroute/pkg/triage"
)

// candidateCap is the most facility options ever offered for patient choice.
const candidateCap = 3

type servicesSelectionOut struct {
	SelectedServices  []string `json:"selected_services"`
	ServicesRationale string   `json:"services_rationale"`
}

func servicesSelectionSchema() oracle.ResponseSchema {
	return oracle.ResponseSchema{
		Name: "services_selection",
		Schema: oracle.ObjectSchema(map[string]oracle.Property{
			"selected_services": {
				Type:  "array",
				Items: &oracle.Property{Type: "string"},
			},
			"services_rationale": {Type: "string"},
		}, []string{"selected_services", "services_rationale"}),
	}
}

type rankedFacility struct {
	facility   registry.Facility
	distanceKm float64
}

// match runs the hospital matching algorithm: oracle-assisted service
// selection, capability resolution, mock geocoding, the eligibility
// predicate, the preferred-facility short-circuit, distance ranking and the
// severity-driven selection policy.
func (d *Deps) match(ctx context.Context, st *pipeline.State) (pipeline.Delta, error) {
	cls := st.Classification
	if cls == nil {
		return pipeline.Delta{}, fmt.Errorf("matching requires a classification record")
	}

	template := d.Registry.TemplateFor(string(cls.Category))
	allLabels := template.Labels()

	// Service selection. Unknown labels are discarded; an empty result
	// falls back to all category labels.
	selected, err := d.selectServices(ctx, cls, allLabels)
	if err != nil {
		return pipeline.Delta{}, err
	}
	requiredCaps := template.RequiredCapabilities(selected)
	d.logger.Info("match: selected services %v, required capabilities %v", selected, requiredCaps)

	// Location resolution.
	patient, resolved := geo.Resolve(cls.Location)
	if !resolved {
		d.logger.Warn("match: location %q not recognized, using Metro Manila center", cls.Location)
	}

	// Eligibility predicate over the registry.
	var passing []rankedFacility
	failures := make(map[string]string)
	for _, f := range d.Registry.Facilities() {
		ok, reason := registry.Eligible(f, cls.InsuranceProvider, string(cls.Category), requiredCaps)
		if !ok {
			failures[f.Name] = reason
			continue
		}
		dist := geo.DistanceKm(patient, geo.Point{Lat: f.Lat, Lng: f.Lng})
		passing = append(passing, rankedFacility{facility: f, distanceKm: dist})
	}

	// Preferred-facility short-circuit.
	var preferredFail string
	if cls.PreferredHospital != "" {
		if f, found := d.Registry.FindByName(cls.PreferredHospital); found {
			ok, reason := registry.Eligible(f, cls.InsuranceProvider, string(cls.Category), requiredCaps)
			if ok {
				dist := geo.DistanceKm(patient, geo.Point{Lat: f.Lat, Lng: f.Lng})
				result := &triage.MatchResult{
					Matched:       true,
					Resolved:      &triage.ResolvedFacility{Facility: f, DistanceKm: dist},
					PreferredUsed: true,
				}
				return d.finishMatch(ctx, st, cls, selected, result)
			}
			preferredFail = reason
		} else {
			preferredFail = fmt.Sprintf("Preferred hospital '%s' was not found in the accredited network", cls.PreferredHospital)
		}
		d.logger.Warn("match: preferred hospital rejected: %s", preferredFail)
	}

	// Ranking: ascending distance, stable, registry order breaks ties.
	sort.SliceStable(passing, func(i, j int) bool {
		return passing[i].distanceKm < passing[j].distanceKm
	})

	if len(passing) == 0 {
		reason := fmt.Sprintf("No hospitals found accepting %s with required services for %s.",
			cls.InsuranceProvider, cls.Category)
		if preferredFail != "" {
			reason = fmt.Sprintf("%s %s.", reason, preferredFail)
		}
		d.logger.Warn("match: %s", reason)
		result := &triage.MatchResult{
			Matched:             false,
			NoMatchReason:       reason,
			PreferredFailReason: preferredFail,
		}
		return d.finishMatch(ctx, st, cls, selected, result)
	}

	// Selection policy: CRITICAL auto-selects the nearest facility; anything
	// else offers a capped candidate list for patient choice.
	if cls.Severity == triage.SeverityCritical {
		top := passing[0]
		result := &triage.MatchResult{
			Matched:             true,
			Resolved:            &triage.ResolvedFacility{Facility: top.facility, DistanceKm: top.distanceKm},
			AutoSelected:        true,
			PreferredFailReason: preferredFail,
		}
		return d.finishMatch(ctx, st, cls, selected, result)
	}

	n := len(passing)
	if n > candidateCap {
		n = candidateCap
	}
	candidates := make([]triage.Candidate, 0, n)
	for _, r := range passing[:n] {
		candidates = append(candidates, triage.Candidate{
			FacilityID:       r.facility.ID,
			FacilityName:     r.facility.Name,
			Address:          r.facility.Address,
			Contact:          r.facility.Contact,
			EmergencyContact: r.facility.EmergencyContact,
			DistanceKm:       r.distanceKm,
		})
	}
	result := &triage.MatchResult{
		Matched:             true,
		Candidates:          candidates,
		PreferredFailReason: preferredFail,
	}
	return d.finishMatch(ctx, st, cls, selected, result)
}

// selectServices asks the oracle to choose authorization-service labels,
// keeping only labels that exist in the template. Zero valid labels selects
// every label: the safety-biased default.
func (d *Deps) selectServices(ctx context.Context, cls *triage.Classification, allLabels []string) ([]string, error) {
	labelsJSON, err := json.Marshal(allLabels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode service labels: %w", err)
	}

	req := oracle.NewRequest([]oracle.Message{
		oracle.SystemMessage(servicesSelectionSystemPrompt),
		oracle.UserMessage(fmt.Sprintf(servicesSelectionQueryPrompt,
			cls.Category, cls.Severity, cls.Symptoms, cls.CurrentSituation, string(labelsJSON))),
	})

	out, res, err := oracle.Structured(ctx, d.Oracle, req, servicesSelectionSchema(),
		func(_ string, _ error) servicesSelectionOut {
			return servicesSelectionOut{SelectedServices: allLabels}
		})
	if err != nil {
		return nil, fmt.Errorf("service selection call failed: %w", err)
	}
	d.noteFallback(pipeline.StageMatch, res)

	valid := make(map[string]bool, len(allLabels))
	for _, l := range allLabels {
		valid[l] = true
	}
	var selected []string
	for _, l := range out.SelectedServices {
		if valid[l] {
			selected = append(selected, l)
		}
	}
	if len(selected) == 0 {
		d.logger.Warn("match: oracle returned no valid service labels, selecting all %d", len(allLabels))
		selected = append(selected, allLabels...)
	}
	return selected, nil
}

// finishMatch generates the free-text outcome summary, appends it to
// history, and routes by result shape.
func (d *Deps) finishMatch(ctx context.Context, _ *pipeline.State, cls *triage.Classification, selected []string, result *triage.MatchResult) (pipeline.Delta, error) {
	summary, err := d.matchSummary(ctx, cls, result)
	if err != nil {
		return pipeline.Delta{}, err
	}

	next := pipeline.StageEnd
	switch {
	case result.HasResolved():
		next = pipeline.StageAuthorization
	case result.HasCandidates():
		next = pipeline.StageResponse
	}

	return pipeline.Delta{
		Next:             next,
		SelectedServices: selected,
		Match:            result,
		Messages: []pipeline.AgentMessage{
			{Stage: pipeline.StageMatch, Content: summary},
		},
	}, nil
}

// matchSummary issues the unconstrained outcome-summary call. Empty content
// degrades to a deterministic default.
func (d *Deps) matchSummary(ctx context.Context, cls *triage.Classification, result *triage.MatchResult) (string, error) {
	preferred := cls.PreferredHospital
	if preferred == "" {
		preferred = "None"
	}
	disposition := "No preferred hospital requested"
	switch {
	case result.PreferredUsed:
		disposition = "Preferred hospital passed all checks and was used"
	case result.PreferredFailReason != "":
		disposition = result.PreferredFailReason
	}

	decision := "no facility found, case closed"
	facility := "none"
	switch {
	case result.HasResolved():
		if result.AutoSelected {
			decision = "nearest facility auto-selected due to severity, proceeding to authorization"
		} else {
			decision = "preferred facility confirmed, proceeding to authorization"
		}
		facility = fmt.Sprintf("%s (%.2f km)", result.Resolved.Facility.Name, result.Resolved.DistanceKm)
	case result.HasCandidates():
		names := make([]string, len(result.Candidates))
		for i, c := range result.Candidates {
			names[i] = fmt.Sprintf("%s (%.2f km)", c.FacilityName, c.DistanceKm)
		}
		decision = "presenting ranked candidates for patient choice"
		facility = strings.Join(names, "; ")
	}

	req := oracle.NewRequest([]oracle.Message{
		oracle.SystemMessage(matchSummarySystemPrompt),
		oracle.UserMessage(fmt.Sprintf(matchSummaryQueryPrompt,
			cls.Category, cls.Severity, preferred, disposition, decision, facility)),
	})

	resp, err := d.Oracle.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("match summary call failed: %w", err)
	}
	if strings.TrimSpace(resp.Content) != "" {
		return resp.Content, nil
	}

	return fmt.Sprintf("Matching outcome for %s/%s case: %s. Preferred hospital: %s (%s). Facility: %s.",
		cls.Category, cls.Severity, decision, preferred, disposition, facility), nil
}
