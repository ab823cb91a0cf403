package deflect

// DefaultPatterns is the production deflection table for the MyAADE portal.
// Order is priority: a text containing keywords from several patterns is
// classified by the earliest entry. The jurisdictional redirect is listed
// first because it is the most specific and most actionable signal.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Kind:        "doy_peiraia_redirect",
			KeywordsEL:  []string{"δου κατοίκων εξωτερικού", "αρμόδια δου εξωτερικού", "κατοίκων εξωτερικού"},
			KeywordsEN:  []string{"foreign residents tax office", "competent doy for foreigners"},
			Severity:    SeverityCritical,
			Description: "Jurisdictional deflection pattern (Peiraia -> Foreign Residents)",
		},
		{
			Kind:        "forwarded",
			KeywordsEL:  []string{"διαβιβάστηκε", "προωθήθηκε", "αρμόδια υπηρεσία"},
			KeywordsEN:  []string{"forwarded", "referred to", "competent authority"},
			Severity:    SeverityHigh,
			Description: "Protocol forwarded to another agency (deflection)",
		},
		{
			Kind:        "under_review",
			KeywordsEL:  []string{"εξετάζεται", "υπό επεξεργασία", "σε εξέλιξη"},
			KeywordsEN:  []string{"under review", "processing", "in progress"},
			Severity:    SeverityWatch,
			Description: "Generic 'under review' status (possible stalling)",
		},
		{
			Kind:        "no_jurisdiction",
			KeywordsEL:  []string{"αναρμόδιο", "δεν υπάγεται", "δεν εμπίπτει"},
			KeywordsEN:  []string{"no jurisdiction", "not competent", "outside scope"},
			Severity:    SeverityCritical,
			Description: "Agency claims no jurisdiction (hard deflection)",
		},
		{
			Kind:        "responded",
			KeywordsEL:  []string{"απαντήθηκε", "ολοκληρώθηκε", "διεκπεραιώθηκε"},
			KeywordsEN:  []string{"answered", "completed", "resolved"},
			Severity:    SeverityCritical,
			Description: "Marked as 'answered' -- verify actual resolution",
		},
		{
			Kind:        "archived",
			KeywordsEL:  []string{"αρχειοθετήθηκε", "τέθηκε στο αρχείο"},
			KeywordsEN:  []string{"archived", "filed away"},
			Severity:    SeverityCritical,
			Description: "Protocol archived without resolution",
		},
	}
}

// PendingKeywords are the normalized "still unresolved" markers used by the
// deadline rule. Kept here so monitor and deflect normalize them identically.
var PendingKeywords = []string{"εκκρεμει", "pending"}
