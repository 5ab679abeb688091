package types

// Member is one field of a struct or union layout: its name, type, and
// byte offset from the start of the aggregate (spec.md §3 "Struct/union
// layout").
type Member struct {
	Name   string
	Type   *Type
	Offset int
}

// Layout is the computed shape of one struct or union tag: the environment
// (owned by the semantic analyzer) stores one Layout per tag, computed
// once at declaration time.
type Layout struct {
	Tag     string
	IsUnion bool
	Members []Member
	Size    int
	Align   int
}

// MemberByName returns the member named m, or nil.
func (l *Layout) MemberByName(m string) *Member {
	for i := range l.Members {
		if l.Members[i].Name == m {
			return &l.Members[i]
		}
	}
	return nil
}

func align(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) / a * a
}

// ComputeStructLayout lays out members in declaration order with the
// natural alignment of each member's type, and rounds the total size up to
// the largest member's alignment (spec.md §3).
func ComputeStructLayout(tag string, members []Member, sizeOf func(*Type) int, alignOf func(*Type) int) Layout {
	offset := 0
	maxAlign := 1
	out := make([]Member, len(members))
	for i, m := range members {
		a := alignOf(m.Type)
		if a > maxAlign {
			maxAlign = a
		}
		offset = align(offset, a)
		out[i] = Member{Name: m.Name, Type: m.Type, Offset: offset}
		offset += sizeOf(m.Type)
	}
	total := align(offset, maxAlign)
	return Layout{Tag: tag, Members: out, Size: total, Align: maxAlign}
}

// ComputeUnionLayout puts every member at offset 0; the union's size is the
// largest member size and its alignment the largest member alignment
// (spec.md §3).
func ComputeUnionLayout(tag string, members []Member, sizeOf func(*Type) int, alignOf func(*Type) int) Layout {
	maxSize, maxAlign := 0, 1
	out := make([]Member, len(members))
	for i, m := range members {
		if s := sizeOf(m.Type); s > maxSize {
			maxSize = s
		}
		if a := alignOf(m.Type); a > maxAlign {
			maxAlign = a
		}
		out[i] = Member{Name: m.Name, Type: m.Type, Offset: 0}
	}
	return Layout{Tag: tag, IsUnion: true, Members: out, Size: align(maxSize, maxAlign), Align: maxAlign}
}
