package mess

// Document is the wire shape of one mess: what /details returns and what the
// balance engine consumes. Field names match the persisted state layout.
type Document struct {
	Name     string               `json:"name"`
	AdminUID string               `json:"adminUid"`
	JoinKey  string               `json:"joinKey"`
	Members  map[string]MemberDoc `json:"members"`
	Expenses []ExpenseDoc         `json:"expenses"`
}

type MemberDoc struct {
	Name    string         `json:"name"`
	Deposit float64        `json:"deposit"`
	Meals   map[string]int `json:"meals"`
}

type ExpenseDoc struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        int64   `json:"date"` // epoch milliseconds
	AddedBy     string  `json:"addedBy"`
}

// Normalize fills the defaults the schema guarantees: members and expenses
// are never nil and every member has a meals map. Computation code relies on
// this instead of nil-checking.
func (d *Document) Normalize() {
	if d.Members == nil {
		d.Members = make(map[string]MemberDoc)
	}
	for id, member := range d.Members {
		if member.Meals == nil {
			member.Meals = make(map[string]int)
			d.Members[id] = member
		}
	}
	if d.Expenses == nil {
		d.Expenses = []ExpenseDoc{}
	}
}
