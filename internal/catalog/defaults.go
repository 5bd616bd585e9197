// File path: internal/catalog/defaults.go
package catalog

// Default returns the built-in registry of regulator data extracts. Paths are
// relative and resolved against the configured data directory.
func Default() *Catalog {
	return New(
		Dataset{
			Name: "production_daily",
			Path: "production.csv",
			Description: "Daily water production volumes and operating hours for multiple countries. " +
				"Each row includes production_m3, service_hours, date, and the country.",
			ColumnNotes: `
- country: Country name (cameroon, uganda, malawi, lesotho)
- source: Water production source or facility name
- date_YYMMDD: Calendar date (YYYY/MM/DD)
- production_m3: Volume of water produced that day (m3)
- service_hours: Number of hours the production system operated that day
`,
		},
		Dataset{
			Name: "billing_customers",
			Path: "billing.csv",
			Description: "Customer-level monthly billing and payment records across multiple countries. " +
				"Includes billed consumption, payments, and monthly billing dates.",
			ColumnNotes: `
- country: Country name
- customer_id: Customer identifier
- date_MMYY: Billing month/year
- consumption_m3: Billed consumption (m3)
- billed: Amount billed
- paid: Amount paid
- source: Data source (may be empty)
- date_YYMMDD: Optional date field
`,
		},
		Dataset{
			Name: "all_fin_service",
			Path: "all_fin_service.csv",
			Description: "City-level sanitation and water financial/service indicators across multiple countries. " +
				"Includes sewer network length, complaints, revenue, staffing, and operational metrics.",
			ColumnNotes: `
- country: Country name
- city: City name
- date_MMYY: Month/year
- sewer_length: Length of sewer network (km)
- complaints, resolved: Complaint volumes and resolutions
- blocks: Number of sewer blockages
- sewer_billed, sewer_revenue: Billed amounts and revenue collected
- opex: Operating expenditure
- san_staff, w_staff: Sanitation and water staff counts
- propoor_popn: Population covered by pro-poor programs
`,
		},
		Dataset{
			Name: "all_national",
			Path: "all_national.csv",
			Description: "National-level annual WASH budgets, staffing, water treatment plant data, and " +
				"service provider indicators for multiple countries.",
			ColumnNotes: `
- country: Country name
- date_YY: Year
- budget_allocated, san_allocation, wat_allocation: WASH budget values
- staff_cost: Staff expenditure
- water_resources: Water resource expenditures
- trained_staff: Number of trained staff
- complaint_resolution: Complaints resolved (indicator)
- registered_wtps, inspected_wtps: Water treatment plants
- total_service_providers, licensed_service_providers: Provider counts
- asset_health: Asset condition indicator
- staff_training_budget: Training allocated budget
`,
		},
		Dataset{
			Name: "s_access",
			Path: "s_access.csv",
			Description: "Sanitation access data by zone and year across multiple countries, following " +
				"the JMP service ladder (safely managed, basic, limited, etc.).",
			ColumnNotes: `
- country: Country name
- zone: Administrative zone
- date_YY: Year
- safely_managed, basic, limited, unimproved, open_def: Population counts by sanitation service level
- *_pct: Percentage of population in each service level
- other_pct: Other/unspecified sanitation access
- popn_total: Total population
- households: Number of households
`,
		},
		Dataset{
			Name: "s_service",
			Path: "s_service.csv",
			Description: "Sanitation service delivery by zone and month across multiple countries. " +
				"Includes sewer connections, sludge collection, wastewater treatment, and reuse.",
			ColumnNotes: `
- country: Country name
- zone: Administrative zone
- date_MMYY: Month/year
- households: Number of households
- sewer_connections: Sewer connections
- public_toilets: Number of public toilets
- workforce, f_workforce: Total and female sanitation workforce
- ww_collected, ww_treated, ww_reused: Wastewater collected/treated/reused
- w_supplied: Water supplied (m3)
- hh_emptied: Households emptied
- fs_treated, fs_reused: Fecal sludge treated/reused
`,
		},
		Dataset{
			Name: "water_access",
			Path: "water_access.csv",
			Description: "Water access levels by zone across multiple countries, including safely managed, " +
				"basic, limited and unimproved service levels, plus households and population totals.",
			ColumnNotes: `
- country: Country name
- zone: Administrative zone
- safely_managed, basic, limited, unimproved, surface_water: Population by water service level
- *_pct: Percentage of population for each service level
- popn_total: Total population
- households: Number of households
- municipal_coverage: Municipal water supply coverage
`,
		},
		Dataset{
			Name: "water_service",
			Path: "water_service.csv",
			Description: "Water service quality and supply indicators by zone and month across multiple countries. " +
				"Includes quality tests (chlorine/E. coli), water supplied, consumption, and capacity.",
			ColumnNotes: `
- country: Country name
- zone: Administrative zone
- date_MMYY: Month/year
- tests_chlorine, tests_ecoli: Number of requested tests
- tests_conducted_chlorine, test_conducted_ecoli: Tests conducted
- test_passed_chlorine, tests_passed_ecoli: Tests that passed
- w_supplied: Water supplied (m3)
- total_consumption: Total water consumption (m3)
- metered: Metered consumption or metered connections
- ww_capacity: Wastewater treatment capacity
`,
		},
	)
}
