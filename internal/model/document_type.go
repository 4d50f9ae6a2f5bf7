package model

// DocumentType classifies a document attached to a dossier.
type DocumentType string

const (
	DocPassport               DocumentType = "passport"
	DocBirthCertificate       DocumentType = "birth_certificate"
	DocMarriageCertificate    DocumentType = "marriage_certificate"
	DocProofOfIncome          DocumentType = "proof_of_income"
	DocBankStatement          DocumentType = "bank_statement"
	DocAccommodationProof     DocumentType = "accommodation_proof"
	DocHealthInsurance        DocumentType = "health_insurance"
	DocCriminalRecord         DocumentType = "criminal_record"
	DocEducationalCertificate DocumentType = "educational_certificate"
	DocEmploymentContract     DocumentType = "employment_contract"
	DocVisaApplicationForm    DocumentType = "visa_application_form"
	DocPassportPhoto          DocumentType = "passport_photo"
	DocOther                  DocumentType = "other"
)

var documentTypes = []DocumentType{
	DocPassport,
	DocBirthCertificate,
	DocMarriageCertificate,
	DocProofOfIncome,
	DocBankStatement,
	DocAccommodationProof,
	DocHealthInsurance,
	DocCriminalRecord,
	DocEducationalCertificate,
	DocEmploymentContract,
	DocVisaApplicationForm,
	DocPassportPhoto,
	DocOther,
}

var documentTypeLabels = map[DocumentType]string{
	DocPassport:               "Passport",
	DocBirthCertificate:       "Birth Certificate",
	DocMarriageCertificate:    "Marriage Certificate",
	DocProofOfIncome:          "Proof of Income",
	DocBankStatement:          "Bank Statement",
	DocAccommodationProof:     "Accommodation Proof",
	DocHealthInsurance:        "Health Insurance",
	DocCriminalRecord:         "Criminal Record",
	DocEducationalCertificate: "Educational Certificate",
	DocEmploymentContract:     "Employment Contract",
	DocVisaApplicationForm:    "Visa Application Form",
	DocPassportPhoto:          "Passport Photo",
	DocOther:                  "Other",
}

// AllDocumentTypes returns every document type in declaration order.
func AllDocumentTypes() []DocumentType {
	out := make([]DocumentType, len(documentTypes))
	copy(out, documentTypes)
	return out
}

func (d DocumentType) Valid() bool {
	_, ok := documentTypeLabels[d]
	return ok
}

func (d DocumentType) Label() string { return documentTypeLabels[d] }

// DocumentTypeOptions lists document types with their label.
func DocumentTypeOptions() []Option {
	out := make([]Option, 0, len(documentTypes))
	for _, d := range documentTypes {
		out = append(out, Option{Value: string(d), Label: d.Label()})
	}
	return out
}
