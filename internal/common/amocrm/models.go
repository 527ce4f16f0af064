package amocrm

// LeadsPage is the envelope returned by GET /api/v4/leads.
type LeadsPage struct {
	Page  int `json:"_page"`
	Links struct {
		Self struct {
			Href string `json:"href"`
		} `json:"self"`
	} `json:"_links"`
	Embedded struct {
		Leads []Lead `json:"leads"`
	} `json:"_embedded"`
}

type Lead struct {
	ID                int64        `json:"id"`
	Name              string       `json:"name"`
	Price             float64      `json:"price"`
	ResponsibleUserID int64        `json:"responsible_user_id"`
	GroupID           int64        `json:"group_id"`
	StatusID          int64        `json:"status_id"`
	PipelineID        int64        `json:"pipeline_id"`
	CreatedAt         int64        `json:"created_at"`
	Embedded          LeadEmbedded `json:"_embedded"`
}

type LeadEmbedded struct {
	Contacts  []ContactRef `json:"contacts"`
	Companies []CompanyRef `json:"companies"`
}

// ContactRef is a contact linked to a lead; IsMain marks the primary one.
type ContactRef struct {
	ID     int64 `json:"id"`
	IsMain bool  `json:"is_main"`
}

type CompanyRef struct {
	ID int64 `json:"id"`
}

// PrimaryContactIDs returns the ids of contacts flagged is_main, in CRM order.
func (l Lead) PrimaryContactIDs() []int64 {
	var ids []int64
	for _, ref := range l.Embedded.Contacts {
		if ref.IsMain {
			ids = append(ids, ref.ID)
		}
	}
	return ids
}

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type PipelineStatus struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	PipelineID int64  `json:"pipeline_id"`
	AccountID  int64  `json:"account_id"`
}

// RawContact is the subset of GET /api/v4/contacts/{id} the service reads.
type RawContact struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	CustomFieldsValues []CustomField `json:"custom_fields_values"`
}

type CustomField struct {
	FieldID   int64              `json:"field_id"`
	FieldName string             `json:"field_name"`
	FieldCode string             `json:"field_code"`
	Values    []CustomFieldValue `json:"values"`
}

type CustomFieldValue struct {
	Value    interface{} `json:"value"`
	EnumID   int64       `json:"enum_id,omitempty"`
	EnumCode string      `json:"enum_code,omitempty"`
}

// Account is the minimal shape of GET /api/v4/account, used for probing.
type Account struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
}
