package cluster

import "encoding/json"

// MarshalJSON implementations render the stable, externally-contracted
// field sets for each entity. Hand-rolled rather than struct tags
// throughout, matching aistore's cluster/meta.Snode convention of a
// dedicated wire-shape type per entity.

type nodeJSON struct {
	Host       string  `json:"host"`
	Port       string  `json:"port"`
	Family     string  `json:"family"`
	La1        float64 `json:"la1"`
	TxBytes    uint64  `json:"tx_bytes"`
	RxBytes    uint64  `json:"rx_bytes"`
	TsSec      uint64  `json:"ts_sec"`
	TsUsec     uint64  `json:"ts_usec"`
	BackendCnt int     `json:"backend_count"`
	UpdatedAt  int64   `json:"updated_at"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	stat := n.Stat()
	return json.Marshal(nodeJSON{
		Host:       n.host,
		Port:       n.port,
		Family:     n.family,
		La1:        stat.La1,
		TxBytes:    stat.TxBytes,
		RxBytes:    stat.RxBytes,
		TsSec:      stat.TsSec,
		TsUsec:     stat.TsUsec,
		BackendCnt: len(n.Backends()),
		UpdatedAt:  n.UpdatedAt().Unix(),
	})
}

type backendJSON struct {
	Key           string  `json:"key"`
	NodeKey       string  `json:"node_key"`
	BackendID     uint64  `json:"backend_id"`
	BasePath      string  `json:"base_path"`
	Status        string  `json:"status"`
	StatusText    string  `json:"status_text"`
	TotalSpace    uint64  `json:"total_space"`
	UsedSpace     uint64  `json:"used_space"`
	FreeSpace     uint64  `json:"free_space"`
	EffectiveFree uint64  `json:"effective_free_space"`
	ReadRPS       uint64  `json:"read_rps"`
	WriteRPS      uint64  `json:"write_rps"`
	Fragmentation float64 `json:"fragmentation"`
	Stalled       bool    `json:"stalled"`
	GroupID       uint64  `json:"group_id"`
	UpdatedAt     int64   `json:"updated_at"`
}

func (b *Backend) MarshalJSON() ([]byte, error) {
	calc := b.Calculated()
	status, text := b.Status(), ""
	if b.status == StatusBad || b.status == StatusRO {
		text = b.statusText
	}
	var groupID uint64
	if g := b.Group(); g != nil {
		groupID = g.ID()
	}
	return json.Marshal(backendJSON{
		Key:           b.Key(),
		NodeKey:       b.nodeKey,
		BackendID:     b.id,
		BasePath:      b.basePath,
		Status:        status.String(),
		StatusText:    text,
		TotalSpace:    calc.TotalSpace,
		UsedSpace:     calc.UsedSpace,
		FreeSpace:     calc.FreeSpace,
		EffectiveFree: calc.EffectiveFreeSpace,
		ReadRPS:       calc.ReadRPS,
		WriteRPS:      calc.WriteRPS,
		Fragmentation: calc.Fragmentation,
		Stalled:       calc.Stalled,
		GroupID:       groupID,
		UpdatedAt:     b.UpdatedAt().Unix(),
	})
}

type fsJSON struct {
	Host       string `json:"host"`
	Fsid       uint64 `json:"fsid"`
	TsSec      uint64 `json:"ts_sec"`
	TotalSpace uint64 `json:"total_space"`
	Status     string `json:"status"`
	Members    int    `json:"member_count"`
	UpdatedAt  int64  `json:"updated_at"`
}

func (f *FS) MarshalJSON() ([]byte, error) {
	return json.Marshal(fsJSON{
		Host:       f.host,
		Fsid:       f.fsid,
		TsSec:      f.TsSec(),
		TotalSpace: f.TotalSpace(),
		Status:     f.Status().String(),
		Members:    len(f.Members()),
		UpdatedAt:  f.UpdatedAt().Unix(),
	})
}

type groupJSON struct {
	ID         uint64 `json:"id"`
	Status     string `json:"status"`
	StatusText string `json:"status_text"`
	Namespace  string `json:"namespace"`
	Frozen     bool   `json:"frozen"`
	CoupleKey  string `json:"couple_key,omitempty"`
	Members    int    `json:"member_count"`
	UpdatedAt  int64  `json:"updated_at"`
}

func (g *Group) MarshalJSON() ([]byte, error) {
	status, text := g.Status()
	var coupleKey string
	if c := g.Couple(); c != nil {
		coupleKey = c.Key()
	}
	return json.Marshal(groupJSON{
		ID:         g.id,
		Status:     status.String(),
		StatusText: text,
		Namespace:  g.Namespace(),
		Frozen:     g.Frozen(),
		CoupleKey:  coupleKey,
		Members:    g.MemberCount(),
		UpdatedAt:  g.UpdatedAt().Unix(),
	})
}

type coupleJSON struct {
	Key        string  `json:"key"`
	GroupIDs   []int64 `json:"group_ids"`
	Status     string  `json:"status"`
	StatusText string  `json:"status_text"`
	UpdatedAt  int64   `json:"updated_at"`
}

func (c *Couple) MarshalJSON() ([]byte, error) {
	status, text := c.Status()
	return json.Marshal(coupleJSON{
		Key:        c.Key(),
		GroupIDs:   c.GroupIDs(),
		Status:     status.String(),
		StatusText: text,
		UpdatedAt:  c.UpdatedAt().Unix(),
	})
}

type namespaceJSON struct {
	Name       string   `json:"name"`
	CoupleKeys []string `json:"couple_keys"`
}

func (ns *Namespace) MarshalJSON() ([]byte, error) {
	couples := ns.Couples()
	keys := make([]string, len(couples))
	for i, c := range couples {
		keys[i] = c.Key()
	}
	return json.Marshal(namespaceJSON{Name: ns.Name(), CoupleKeys: keys})
}
