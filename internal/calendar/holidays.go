package calendar

// NYSE full-day closures. Only the years listed here are known; dates in
// other years are treated as regular weekdays and Covers reports false.
var nyseHolidays = map[int][]string{
	2025: {
		"2025-01-01", // New Year's Day
		"2025-01-09", // National Day of Mourning
		"2025-01-20", // Martin Luther King Jr. Day
		"2025-02-17", // Presidents' Day
		"2025-04-18", // Good Friday
		"2025-05-26", // Memorial Day
		"2025-06-19", // Juneteenth
		"2025-07-04", // Independence Day
		"2025-09-01", // Labor Day
		"2025-11-27", // Thanksgiving
		"2025-12-25", // Christmas
	},
	2026: {
		"2026-01-01",
		"2026-01-19",
		"2026-02-16",
		"2026-04-03",
		"2026-05-25",
		"2026-06-19",
		"2026-07-03", // Independence Day observed
		"2026-09-07",
		"2026-11-26",
		"2026-12-25",
	},
}
