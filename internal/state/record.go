package state

// Record lists what one run created on the machine
type Record struct {
	ID          string             `json:"id"`
	PID         int                `json:"pid"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
	Controller  string             `json:"controller"`
	Hosts       []HostRecord       `json:"hosts"`
	Switches    []SwitchRecord     `json:"switches"`
	Veths       []VethRecord       `json:"veths"`
	Attachments []AttachmentRecord `json:"attachments"`
}

type HostRecord struct {
	Name      string `json:"name"`
	IP        string `json:"ip,omitempty"`
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
	Owned     bool   `json:"owned"`
}

type SwitchRecord struct {
	Name  string   `json:"name"`
	Ports []string `json:"ports,omitempty"`
}

// VethRecord names both ends of a pair; at least one of them stays in the
// root namespace.
type VethRecord struct {
	Name     string `json:"name"`
	PeerName string `json:"peer_name"`
}

type AttachmentRecord struct {
	Interface string `json:"interface"`
	Switch    string `json:"switch"`
}
