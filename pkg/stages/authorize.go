package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediroute/pkg/oracle"
	"mediroute/pkg/pipeline"
	"mediroute/pkg/registry"
	"mediroute/pkg/triage"
)

// loaValidity is the authorization validity window.
const loaValidity = 48 * time.Hour

// loaTimeFormat renders issuance and expiry timestamps.
const loaTimeFormat = "January 02, 2006 03:04 PM"

type loaSoftFieldsOut struct {
	ClinicalJustification string `json:"clinical_justification"`
	Remarks               string `json:"remarks"`
}

func loaSoftFieldsSchema() oracle.ResponseSchema {
	return oracle.ResponseSchema{
		Name: "loa_soft_fields",
		Schema: oracle.ObjectSchema(map[string]oracle.Property{
			"clinical_justification": {Type: "string"},
			"remarks":                {Type: "string"},
		}, []string{"clinical_justification", "remarks"}),
	}
}

// authorize issues the LOA. The facility comes from the match result
// (auto-selection or preferred match) or, on a later conversational turn,
// from the patient's chosen hospital name resolved against the registry.
// With neither available the stage terminates with an explicit failure
// record and no authorization.
func (d *Deps) authorize(ctx context.Context, st *pipeline.State) (pipeline.Delta, error) {
	cls := st.Classification
	if cls == nil {
		return pipeline.Delta{}, fmt.Errorf("authorization requires a classification record")
	}

	resolved, failReason := d.resolveAuthFacility(st)
	if resolved == nil {
		d.logger.Warn("authorization: %s", failReason)
		auth := &triage.Authorization{Generated: false, Reason: failReason}
		return pipeline.Delta{
			Next:          pipeline.StageEnd,
			Authorization: auth,
			Messages: []pipeline.AgentMessage{
				{Stage: pipeline.StageAuthorization, Content: auth.Summary()},
			},
		}, nil
	}

	template := d.Registry.TemplateFor(string(cls.Category))
	approved := approvedServices(st.SelectedServices, template, resolved.Facility)

	d.logger.Info("authorization: facility %s, approved services %v", resolved.Facility.Name, approved)

	soft, err := d.loaSoftFields(ctx, cls, resolved.Facility.Name, approved)
	if err != nil {
		return pipeline.Delta{}, err
	}

	now := d.Now()
	auth := &triage.Authorization{
		Generated: true,

		LOANumber:  fmt.Sprintf("LOA-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8])),
		DateIssued: now.Format(loaTimeFormat),
		ValidUntil: now.Add(loaValidity).Format(loaTimeFormat),

		InsuranceProvider: cls.InsuranceProvider,

		Symptoms:         cls.Symptoms,
		Category:         cls.Category,
		Severity:         cls.Severity,
		CurrentSituation: cls.CurrentSituation,

		HospitalID:       resolved.Facility.ID,
		HospitalName:     resolved.Facility.Name,
		Address:          resolved.Facility.Address,
		Contact:          resolved.Facility.Contact,
		EmergencyContact: resolved.Facility.EmergencyContact,
		DistanceKm:       resolved.DistanceKm,

		ApprovedServices: approved,
		RoomType:         template.RoomType,
		Exclusions:       template.Exclusions,

		ClinicalJustification: soft.ClinicalJustification,
		Remarks:               soft.Remarks,
	}

	d.logger.Info("authorization: generated %s, valid until %s", auth.LOANumber, auth.ValidUntil)

	return pipeline.Delta{
		Next:          pipeline.StageReport,
		Authorization: auth,
		Messages: []pipeline.AgentMessage{
			{Stage: pipeline.StageAuthorization, Content: auth.Summary()},
		},
	}, nil
}

// resolveAuthFacility picks the facility record for the LOA. Three origins:
// the match result's resolved facility, or a chosen-hospital name looked up
// in the registry with the distance recovered from the earlier candidate
// list (zero when unavailable). Returns nil with a reason when nothing
// resolves.
func (d *Deps) resolveAuthFacility(st *pipeline.State) (*triage.ResolvedFacility, string) {
	if st.Match != nil && st.Match.HasResolved() {
		return st.Match.Resolved, ""
	}

	if st.ChosenHospital == "" {
		return nil, "No facility was resolved and no hospital has been chosen."
	}

	f, found := d.Registry.FindByName(st.ChosenHospital)
	if !found {
		return nil, fmt.Sprintf("Chosen hospital '%s' was not found in the accredited network.", st.ChosenHospital)
	}

	var distance float64
	if st.Match != nil {
		for _, c := range st.Match.Candidates {
			if strings.EqualFold(c.FacilityName, st.ChosenHospital) {
				distance = c.DistanceKm
				break
			}
		}
	}

	return &triage.ResolvedFacility{Facility: f, DistanceKm: distance}, ""
}

// approvedServices filters the selected labels to those whose required
// capability the facility actually has. Labels without a requirement always
// pass.
func approvedServices(selected []string, template registry.Template, f registry.Facility) []string {
	approved := make([]string, 0, len(selected))
	for _, label := range selected {
		key, _ := template.RequiresFor(label)
		if f.HasCapability(key) {
			approved = append(approved, label)
		}
	}
	return approved
}

// loaSoftFields issues the two-field narrative call. A parse failure
// degrades to templated text referencing the symptoms and category.
func (d *Deps) loaSoftFields(ctx context.Context, cls *triage.Classification, hospitalName string, approved []string) (loaSoftFieldsOut, error) {
	approvedJSON, err := json.Marshal(approved)
	if err != nil {
		return loaSoftFieldsOut{}, fmt.Errorf("failed to encode approved services: %w", err)
	}

	req := oracle.NewRequest([]oracle.Message{
		oracle.SystemMessage(loaSystemPrompt),
		oracle.UserMessage(fmt.Sprintf(loaQueryPrompt,
			cls.Symptoms, cls.CurrentSituation, cls.Category, cls.Severity,
			cls.InsuranceProvider, hospitalName, string(approvedJSON))),
	})

	out, res, err := oracle.Structured(ctx, d.Oracle, req, loaSoftFieldsSchema(),
		func(_ string, _ error) loaSoftFieldsOut {
			return loaSoftFieldsOut{
				ClinicalJustification: fmt.Sprintf(
					"Patient presents with %s requiring %s emergency admission and treatment.",
					cls.Symptoms, cls.Category),
				Remarks: "Please prioritize emergency assessment upon arrival.",
			}
		})
	if err != nil {
		return loaSoftFieldsOut{}, fmt.Errorf("authorization narrative call failed: %w", err)
	}
	d.noteFallback(pipeline.StageAuthorization, res)
	return out, nil
}
