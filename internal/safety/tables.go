package safety

// CategoryRule groups the trigger phrases for one health-condition category
// with its human-facing warning and the safer practices suggested instead.
type CategoryRule struct {
	Name         string
	Keywords     []string
	Message      string
	Alternatives []string
}

// Tables is the immutable rule set the classifier and messenger run on.
// Loaded once at process start and injected, never consulted as globals.
type Tables struct {
	Categories []CategoryRule
}

// DefaultTables returns the built-in condition rules. Category order is
// significant: it decides alternative ordering when several categories match.
func DefaultTables() *Tables {
	return &Tables{Categories: []CategoryRule{
		{
			Name: "pregnancy",
			Keywords: []string{
				"pregnant", "pregnancy", "expecting", "trimester", "postpartum",
				"postnatal", "prenatal", "maternity", "expecting baby",
			},
			Message: "Pregnancy requires special modifications in yoga practice.",
			Alternatives: []string{
				"Prenatal yoga classes with certified instructors",
				"Gentle pelvic floor exercises (with guidance)",
				"Modified breathing techniques (avoid breath retention)",
				"Supported relaxation poses",
			},
		},
		{
			Name: "cardiovascular",
			Keywords: []string{
				"high blood pressure", "hypertension", "heart disease", "heart attack",
				"cardiac", "heart condition", "heart surgery", "heart problem",
				"blood pressure", "bp", "cardiovascular",
			},
			Message: "Heart conditions require careful monitoring during physical activity.",
			Alternatives: []string{
				"Gentle breathing exercises (no breath retention)",
				"Seated meditation",
				"Slow, mindful movements",
				"Relaxation techniques like Yoga Nidra",
			},
		},
		{
			Name: "musculoskeletal",
			Keywords: []string{
				"herniated disc", "slipped disc", "disc prolapse", "spinal injury",
				"back surgery", "neck surgery", "spine surgery", "fracture",
				"recent surgery", "post surgery", "operated", "broken bone",
			},
			Message: "Spinal and structural injuries need professional assessment before yoga practice.",
			Alternatives: []string{
				"Chair yoga or supported poses",
				"Gentle awareness practices",
				"Breath-focused meditation",
				"Guided relaxation (avoiding affected areas)",
			},
		},
		{
			Name: "chronicDiseases",
			Keywords: []string{
				"diabetes", "diabetic", "glaucoma", "epilepsy", "seizure",
				"hernia", "vertigo", "dizziness", "migraine", "severe headache",
			},
			Message: "Chronic conditions require personalized modifications.",
			Alternatives: []string{
				"Therapeutic yoga with qualified instructor",
				"Gentle breathing practices",
				"Meditation and mindfulness",
				"Restorative yoga poses",
			},
		},
		{
			Name: "neurologicalConditions",
			Keywords: []string{
				"stroke", "paralysis", "neurological", "parkinsons", "multiple sclerosis",
				"ms", "brain injury", "head injury", "concussion",
			},
			Message: "Neurological conditions require specialized guidance.",
			Alternatives: []string{
				"Seated meditation",
				"Gentle breathing awareness",
				"Guided relaxation",
				"Mindfulness practices",
			},
		},
		{
			Name: "cancer",
			Keywords: []string{
				"cancer", "chemotherapy", "chemo", "radiation therapy", "tumor",
				"oncology", "malignant", "carcinoma",
			},
			Message: "Cancer treatment requires gentle, therapeutic approaches.",
			Alternatives: []string{
				"Cancer-specific yoga programs",
				"Gentle restorative poses",
				"Breath awareness (gentle)",
				"Meditation and visualization",
			},
		},
		{
			Name: "respiratoryIssues",
			Keywords: []string{
				"severe asthma", "copd", "chronic bronchitis", "emphysema",
				"severe respiratory", "oxygen therapy",
			},
			Message: "Respiratory conditions need breath-aware modifications.",
			Alternatives: []string{
				"Natural breathing observation",
				"Gentle, comfortable breathing",
				"Relaxation techniques",
				"Seated meditation",
			},
		},
		{
			Name: "recentTrauma",
			Keywords: []string{
				"recent injury", "acute injury", "fresh wound", "inflammation",
				"swelling", "sprain", "strain", "torn ligament", "torn muscle",
			},
			Message: "Recent injuries require healing time before resuming practice.",
			Alternatives: []string{
				"Rest and healing first",
				"Gentle breathing awareness",
				"Meditation practices",
				"Gradual return with professional guidance",
			},
		},
	}}
}

// DefaultTopicCues returns the lexical cues that mark a query as in-domain
// for the boundary filter.
func DefaultTopicCues() []string {
	return []string{
		"yoga", "asana", "pose", "poses", "pranayama", "meditation", "breathing",
		"breath", "namaste", "chakra", "mindfulness", "stretch", "flexibility",
		"wellness", "practice", "spiritual", "exercise", "exercises", "surya",
		"namaskar", "shavasana", "tadasana", "relaxation", "health", "benefits",
		"technique", "techniques", "recommend", "suggestion", "can i", "should i",
		"is it safe",
	}
}
