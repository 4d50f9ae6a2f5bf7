package lifecycle

import "dossierapi/internal/model"

var baseRequirements = []model.DocumentType{model.DocPassport, model.DocPassportPhoto}

var requiredByVisa = map[model.VisaType][]model.DocumentType{
	model.VisaTourist:  baseRequirements,
	model.VisaStudent:  {model.DocPassport, model.DocPassportPhoto, model.DocEducationalCertificate},
	model.VisaWork:     {model.DocPassport, model.DocPassportPhoto, model.DocEmploymentContract},
	model.VisaBusiness: {model.DocPassport, model.DocPassportPhoto, model.DocProofOfIncome},
}

// RequiredDocumentTypes returns the document types a dossier of visaType must carry
// before it can be submitted. Visa types without a specific rule need the base set.
func RequiredDocumentTypes(visaType model.VisaType) []model.DocumentType {
	req, ok := requiredByVisa[visaType]
	if !ok {
		req = baseRequirements
	}
	out := make([]model.DocumentType, len(req))
	copy(out, req)
	return out
}

// MissingDocumentTypes lists the required types with no attached document, in table order.
func MissingDocumentTypes(d *model.Dossier) []model.DocumentType {
	counts := d.DocumentTypeCounts()
	var missing []model.DocumentType
	for _, t := range RequiredDocumentTypes(d.VisaType) {
		if counts[t] == 0 {
			missing = append(missing, t)
		}
	}
	return missing
}

// HasRequiredDocuments reports whether d has at least one document of every required type.
// Only presence is checked; document content is never inspected.
func HasRequiredDocuments(d *model.Dossier) bool {
	return len(MissingDocumentTypes(d)) == 0
}

// CanSubmit reports whether d is a draft with all required documents attached.
func CanSubmit(d *model.Dossier) bool {
	return d.Status == model.StatusDraft && HasRequiredDocuments(d)
}
