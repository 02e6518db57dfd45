package valueobjects

var tagLabels = map[Tag]string{
	TagHiringLock:       "закрепление найма/штата",
	TagOrgInertia:       "организационная инерция",
	TagFixedCost:        "фиксированные затраты",
	TagSunkCost:         "невозвратные затраты",
	TagVendorLockin:     "зависимость от поставщика",
	TagLongTimeline:     "длинный горизонт изменений",
	TagSlowRevert:       "медленный откат",
	TagStrategicClosure: "закрытие стратегических альтернатив",
	TagFlexibilityLow:   "снижение гибкости",
	TagFlexibilityHigh:  "повышенная гибкость",
	TagSpeedHigh:        "ускорение запуска",
	TagSpeedLow:         "снижение скорости",
	TagVariableCost:     "переменные затраты",
	TagOpenStandards:    "открытые стандарты",
	TagLowSunkCost:      "низкие невозвратные затраты",
	TagShortTimeline:    "короткий горизонт изменений",
	TagScopeGrowth:      "расширение скоупа",
	TagScopeLimit:       "ограничение скоупа",
	TagStrategicOpening: "стратегическое расширение",
	TagComplianceRisk:   "риск комплаенса",
	TagIntegrationRisk:  "риск интеграции",
}

// HumanLabel returns the Russian label for the tag, or the raw tag
func (t Tag) HumanLabel() string {
	if l, ok := tagLabels[t]; ok {
		return l
	}
	return string(t)
}
