package order

// Choice values offered by the form.  They drive rendering only; Validate
// checks presence, not membership.
var (
	Countries = []string{"USA", "Canada", "Mexico"}
	States    = []string{"New York", "California", "Texas"}
	Presents  = []string{"candy", "flowers", "teddy"}
	Genders   = []string{"male", "female"}
)

// Notification radio values.
const (
	NotifyYes = "yes"
	NotifyNo  = "no"
)
