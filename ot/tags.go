package ot

// Additional table tags needed for variable-font building, merging, and
// feature freezing (beyond the ones parse.go and hvar.go already define).
var (
	TagVhea = MakeTag('v', 'h', 'e', 'a')
	TagVmtx = MakeTag('v', 'm', 't', 'x')
	TagCFF2 = MakeTag('C', 'F', 'F', '2')
	TagDSIG = MakeTag('D', 'S', 'I', 'G')
)
