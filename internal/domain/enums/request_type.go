package enums

type RequestType string

const (
	RequestTypeAdd    RequestType = "add"
	RequestTypeUpdate RequestType = "update"
	RequestTypeFix    RequestType = "fix"
)

func (t RequestType) Valid() bool {
	switch t {
	case RequestTypeAdd, RequestTypeUpdate, RequestTypeFix:
		return true
	}
	return false
}
