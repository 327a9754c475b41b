package calculator

import "fmt"

var yesNo = []string{"yes", "no"}

var chads2Metadata = Metadata{
	ID:          "chads2_score",
	Title:       "CHADS2 Score for Atrial Fibrillation Stroke Risk",
	Description: "Estimates annual stroke risk in atrial fibrillation to guide anticoagulation decisions",
	Category:    "cardiology",
	Version:     "2001",
	Parameters: []Parameter{
		{Name: "congestive_heart_failure", Type: "string", Required: true, Options: yesNo, Description: "History of CHF or LV dysfunction (1 point)"},
		{Name: "hypertension", Type: "string", Required: true, Options: yesNo, Description: "History of hypertension or current treatment (1 point)"},
		{Name: "age_75_or_older", Type: "string", Required: true, Options: yesNo, Description: "Age 75 years or older (1 point)"},
		{Name: "diabetes_mellitus", Type: "string", Required: true, Options: yesNo, Description: "History of diabetes or current treatment (1 point)"},
		{Name: "stroke_tia_thromboembolism", Type: "string", Required: true, Options: yesNo, Description: "Previous stroke, TIA or thromboembolism (2 points)"},
	},
	ResultUnit: "points",
	References: []string{
		"Gage BF et al. Validation of clinical classification schemes for predicting stroke. JAMA. 2001;285(22):2864-70.",
	},
}

// Sem calculadora registrada: exercita o caminho "not implemented".
var cha2ds2VascMetadata = Metadata{
	ID:          "cha2ds2_vasc",
	Title:       "CHA2DS2-VASc Score for Atrial Fibrillation Stroke Risk",
	Description: "Refines CHADS2 stroke risk with vascular disease, age 65-74 and sex category",
	Category:    "cardiology",
	Version:     "2010",
	ResultUnit:  "points",
}

type chads2Risk struct {
	rate     float64
	rng      string
	category string
	stage    string
	advice   string
	therapy  string
	strength string
}

// indexado pelo score (0-6)
var chads2Table = [...]chads2Risk{
	{1.9, "1.2-3.0", "Low", "Low Risk", "Consider further risk stratification", "Consider CHA2DS2-VASc score or aspirin based on bleeding risk", "Weak recommendation"},
	{2.8, "2.0-3.8", "Low-Intermediate", "Low-Intermediate Risk", "Consider anticoagulation or further risk stratification", "CHA2DS2-VASc score or anticoagulation based on bleeding risk assessment", "Moderate recommendation"},
	{4.0, "3.1-5.1", "Intermediate", "Intermediate Risk", "Anticoagulation generally recommended", "Warfarin or direct oral anticoagulants (DOACs) unless contraindicated", "Strong recommendation"},
	{5.9, "4.6-7.3", "High", "High Risk", "Strong recommendation for anticoagulation", "Warfarin or direct oral anticoagulants (DOACs)", "Strong recommendation"},
	{8.5, "6.3-11.1", "High", "High Risk", "Strong recommendation for anticoagulation", "Warfarin or direct oral anticoagulants (DOACs)", "Strong recommendation"},
	{12.5, "8.2-17.5", "Very High", "Very High Risk", "Strong recommendation for anticoagulation", "Warfarin or direct oral anticoagulants (DOACs)", "Strong recommendation"},
	{18.2, "10.5-27.4", "Very High", "Very High Risk", "Strong recommendation for anticoagulation", "Warfarin or direct oral anticoagulants (DOACs)", "Strong recommendation"},
}

type Chads2Component struct {
	Present bool `json:"present"`
	Points  int  `json:"points"`
}

type Chads2Result struct {
	TotalScore                    int                        `json:"total_score"`
	AnnualStrokeRiskPercent       float64                    `json:"annual_stroke_risk_percent"`
	StrokeRiskRange               string                     `json:"stroke_risk_range"`
	RiskCategory                  string                     `json:"risk_category"`
	AnticoagulationRecommendation string                     `json:"anticoagulation_recommendation"`
	TherapyDetails                string                     `json:"therapy_details"`
	RecommendationStrength        string                     `json:"recommendation_strength"`
	Components                    map[string]Chads2Component `json:"scoring_breakdown"`
}

func CalculateChads2(p Params) (Result, error) {
	weights := []struct {
		name   string
		points int
	}{
		{"congestive_heart_failure", 1},
		{"hypertension", 1},
		{"age_75_or_older", 1},
		{"diabetes_mellitus", 1},
		{"stroke_tia_thromboembolism", 2},
	}

	total := 0
	components := make(map[string]Chads2Component, len(weights))
	for _, w := range weights {
		present, err := p.YesNo(w.name)
		if err != nil {
			return Result{}, err
		}
		c := Chads2Component{Present: present}
		if present {
			c.Points = w.points
			total += w.points
		}
		components[w.name] = c
	}

	risk := chads2Table[total]
	return Result{
		Result: Chads2Result{
			TotalScore:                    total,
			AnnualStrokeRiskPercent:       risk.rate,
			StrokeRiskRange:               risk.rng,
			RiskCategory:                  risk.category,
			AnticoagulationRecommendation: risk.advice,
			TherapyDetails:                risk.therapy,
			RecommendationStrength:        risk.strength,
			Components:                    components,
		},
		Unit: "points",
		Interpretation: fmt.Sprintf("CHADS2 Score %d: %s stroke risk (%.1f%% per year, 95%% CI: %s%%). %s.",
			total, risk.category, risk.rate, risk.rng, risk.advice),
		Stage:            risk.stage,
		StageDescription: risk.category + " annual stroke risk",
	}, nil
}
