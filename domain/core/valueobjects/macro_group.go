package valueobjects

// MacroGroup is the convergence signature of a future state
type MacroGroup string

const (
	GroupPlatformLock     MacroGroup = "platform_lock"
	GroupOrgInertia       MacroGroup = "org_inertia"
	GroupStrategicClosure MacroGroup = "strategic_closure"
	GroupFastStart        MacroGroup = "fast_start"
	GroupScopeGrowth      MacroGroup = "scope_growth"
	GroupStabilization    MacroGroup = "stabilization"
)

var macroGroups = []MacroGroup{
	GroupPlatformLock, GroupOrgInertia, GroupStrategicClosure,
	GroupFastStart, GroupScopeGrowth, GroupStabilization,
}

// MacroGroupOf matches the tag set against the signature rules in priority order
func MacroGroupOf(tags TagSet) MacroGroup {
	switch {
	case tags.HasAny(TagVendorLockin, TagFixedCost, TagSunkCost):
		return GroupPlatformLock
	case tags.HasAny(TagOrgInertia, TagHiringLock):
		return GroupOrgInertia
	case tags.Has(TagStrategicClosure):
		return GroupStrategicClosure
	case tags.HasAny(TagSpeedHigh, TagShortTimeline):
		return GroupFastStart
	case tags.Has(TagScopeGrowth):
		return GroupScopeGrowth
	default:
		return GroupStabilization
	}
}

// Label is the title of the merged node for the group
func (g MacroGroup) Label() string {
	switch g {
	case GroupPlatformLock:
		return "Платформа становится дорогим якорем"
	case GroupOrgInertia:
		return "Согласования начинают съедать скорость"
	case GroupStrategicClosure:
		return "Альтернативы закрываются надолго"
	case GroupFastStart:
		return "Быстрый старт оставляет долг"
	case GroupScopeGrowth:
		return "Объём работ начинает расползаться"
	default:
		return "Откат становится дорогим"
	}
}

// Tags is the representative tag set used to weigh a merged node
func (g MacroGroup) Tags() TagSet {
	switch g {
	case GroupPlatformLock:
		return TagSet{TagVendorLockin, TagFixedCost, TagSunkCost}
	case GroupOrgInertia:
		return TagSet{TagOrgInertia, TagHiringLock}
	case GroupStrategicClosure:
		return TagSet{TagStrategicClosure}
	case GroupFastStart:
		return TagSet{TagSpeedHigh, TagShortTimeline}
	case GroupScopeGrowth:
		return TagSet{TagScopeGrowth}
	default:
		return TagSet{TagSlowRevert}
	}
}
