package domain

// SortField is an inquiry column the admin list may be ordered by.
type SortField string

const (
	SortByCreatedAt   SortField = "createdAt"
	SortByCompanyName SortField = "companyName"
	SortByName        SortField = "name"
	SortByStatus      SortField = "status"
)

var sortColumns = map[SortField]string{
	SortByCreatedAt:   "created_at",
	SortByCompanyName: "company_name",
	SortByName:        "name",
	SortByStatus:      "status",
}

// Column returns the database column for f; ok is false for unknown fields.
func (f SortField) Column() (string, bool) {
	col, ok := sortColumns[f]
	return col, ok
}

// SortFields lists the accepted sortBy values.
func SortFields() []any {
	return []any{string(SortByCreatedAt), string(SortByCompanyName), string(SortByName), string(SortByStatus)}
}

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Valid reports whether o is asc or desc.
func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

// SQL returns the keyword used in ORDER BY.
func (o SortOrder) SQL() string {
	if o == SortAsc {
		return "ASC"
	}
	return "DESC"
}
