package vault

// Table identifiers, in the order the table list presents them.
var TableOrder = []string{
	"kanban_columns",
	"kanban_cards",
	"candidate_data",
	"uniform_inventory",
	"weekly_entries",
	"todos",
}

// Column sets for the tabular projections.
var (
	KanbanColumnColumns = []string{"id", "name", "order", "created_at", "updated_at"}

	KanbanCardColumns = []string{
		"uuid", "candidate_name", "icims_id", "employee_id", "job_id", "req_id",
		"job_name", "job_location", "manager", "branch", "column_id", "order",
		"created_at", "updated_at",
	}

	UniformColumns = []string{"Alteration", "Type", "Size", "Waist", "Inseam", "Quantity", "Branch"}

	WeeklyColumns = []string{"week_start", "week_end", "day", "start", "end", "content"}

	TodoColumns = []string{"id", "text", "done", "createdAt"}
)

// WeeklySummaryDays lists the days of a tracked week in display order.
var WeeklySummaryDays = []string{
	"Friday", "Saturday", "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday",
}

// CandidateUUIDField is the key linking a candidate row to its board card.
const CandidateUUIDField = "candidate UUID"

// CandidateFields is the full candidate detail schema in display order.
// Every candidate row carries all of these keys.
var CandidateFields = []string{
	"Candidate Name",
	"Hire Date",
	"ICIMS ID",
	"Employee ID",
	"Neo Arrival Time",
	"Neo Departure Time",
	"Total Neo Hours",
	"REQ ID",
	"Job ID Name",
	"Job Location",
	"Manager",
	"Branch",
	"Contact Phone",
	"Contact Email",
	"Background Provider",
	"Background Cleared Date",
	"Background MVR Flag",
	"License Type",
	"MA CORI Status",
	"MA CORI Date",
	"NH GC Status",
	"NH GC Expiration Date",
	"NH GC ID Number",
	"ME GC Status",
	"ME GC Expiration Date",
	"ID Type",
	"State Abbreviation",
	"ID Number",
	"DOB",
	"EXP",
	"Other ID Type",
	"Social",
	"Bank Name",
	"Account Type",
	"Routing Number",
	"Account Number",
	"Shirt Size",
	"Waist",
	"Inseam",
	"Issued Shirt Size",
	"Issued Waist",
	"Issued Inseam",
	"Issued Pants Size",
	"Issued Shirt Type",
	"Issued Shirts Given",
	"Issued Pants Type",
	"Issued Pants Given",
	"Uniforms Issued",
	"Shirt Type",
	"Shirts Given",
	"Pants Type",
	"Pants Given",
	"Pants Size",
	"Boots Size",
	"Emergency Contact Name",
	"Emergency Contact Relationship",
	"Emergency Contact Phone",
	"Additional Details",
	"Additional Notes",
	CandidateUUIDField,
}

// SensitivePIIFields are the candidate row fields blanked out when a
// candidate is processed off the board.
var SensitivePIIFields = []string{
	"Contact Phone",
	"Contact Email",
	"Background Provider",
	"Background Cleared Date",
	"Background MVR Flag",
	"License Type",
	"MA CORI Status",
	"MA CORI Date",
	"NH GC Status",
	"NH GC Expiration Date",
	"NH GC ID Number",
	"ME GC Status",
	"ME GC Expiration Date",
	"ID Type",
	"State Abbreviation",
	"ID Number",
	"DOB",
	"EXP",
	"Other ID Type",
	"Social",
	"Bank Name",
	"Account Type",
	"Routing Number",
	"Account Number",
	"Emergency Contact Name",
	"Emergency Contact Relationship",
	"Emergency Contact Phone",
	"Additional Details",
	"Additional Notes",
}

// SensitiveCardFields are the card fields blanked out at the same time.
var SensitiveCardFields = []string{"icims_id", "employee_id"}

// DefaultCandidateRow returns a row with every schema field set to "".
func DefaultCandidateRow() CandidateRow {
	row := make(CandidateRow, len(CandidateFields))
	for _, field := range CandidateFields {
		row[field] = ""
	}
	return row
}

// EnsureCandidateFields fills any schema field missing from row with "".
func EnsureCandidateFields(row CandidateRow) {
	for _, field := range CandidateFields {
		if _, ok := row[field]; !ok {
			row[field] = ""
		}
	}
}
