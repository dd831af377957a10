package ai

// Response schemas in the Gemini OpenAPI subset.

func str() map[string]any { return map[string]any{"type": "STRING"} }

func describedStr(desc string) map[string]any {
	return map[string]any{"type": "STRING", "description": desc}
}

func enum(values ...string) map[string]any {
	return map[string]any{"type": "STRING", "enum": values}
}

func integer() map[string]any { return map[string]any{"type": "INTEGER"} }

func boolean() map[string]any { return map[string]any{"type": "BOOLEAN"} }

func array(items map[string]any) map[string]any {
	return map[string]any{"type": "ARRAY", "items": items}
}

func object(props map[string]any, required ...string) map[string]any {
	o := map[string]any{"type": "OBJECT", "properties": props}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

// metaSchema lists the classification dimensions the model may fill.
func metaSchema() map[string]any {
	return object(map[string]any{
		"CHANNEL":           enum("Web", "Email"),
		"WEBSITE":           enum("CH", "DE", "AT", "DK", "n/a"),
		"ACCOUNT_STATE":     enum("WebOnly", "KnownEU", "KnownCH", "New"),
		"ENTITY_TYPE":       enum("Individual", "PSOCompany"),
		"PSO_FLOW":          enum("None", "APConsentsCompany", "APConsentsPerEmployee", "MASelfApplication", "MAOptOutFromPSO"),
		"PSO_AP_CONSENT":    enum("Yes", "No", "Withdrawn"),
		"PSO_SCOPE":         enum("AllEmployees", "SpecificEmployees"),
		"PSO_EMP_COUNT":     enum("Single", "Bulk"),
		"PSO_MA_STATUS":     enum("New", "KnownEU", "KnownCH", "OptedOutPSO", "IndividualConsentYes", "IndividualConsentNo"),
		"APP_TYPE":          enum("None", "Initiative", "OneProspect", "MultiProspect"),
		"PROSPECT_COUNTRY":  enum("CH", "DE", "AT", "DK", "mix"),
		"CANDIDATE_GEO":     enum("CH", "EU"),
		"CREATOR":           enum("InboundDE", "RecruiterCH", "RecruiterDE", "RecruiterAT", "RecruiterDK"),
		"INGESTION":         enum("Parser", "Manual"),
		"CONTROLLER_SOURCE": enum("Domain", "Creator"),
		"CONSENT_PRE":       enum("None", "Active", "PendingDOI", "Withdrawn"),
		"DOI_REQUIRED":      enum("Yes", "No"),
		"DOI_OUTCOME":       enum("NotRequired", "Sent", "Confirmed", "Expired", "Bounced"),
		"PC_STATE":          enum("Empty", "OneActive", "TwoActive", "OptedOut", "ReOptIn"),
		"PC_LANGUAGE":       enum("fr", "en", "de-CH"),
		"RETENTION":         enum("Reset", "ExpiredDeleteAll", "ExpiredDeleteCountry"),
		"RETENTION_PERIOD":  enum("CH10y", "EU3y"),
		"INTEGRATION":       enum("OK", "Delayed", "Failed", "OutOfOrder", "CPAPIMaintenance"),
		"DEDUP":             enum("Unique", "DuplicateEmail"),
		"REFNR":             enum("Present", "Missing", "AmbiguousTitle"),
		"PLACEMENT_CH":      enum("None", "Temp", "Perm"),
		"AVG2":              enum("AutoYes", "ManualYes", "No_3moDelete", "SalesBackYes"),
		"MARKETING_CONSENT": enum("None", "Active", "Withdrawn", "Pending"),
		"EMAIL_ROUTE":       enum("InboundCentralDE", "DirectRecruiterCH", "DirectRecruiterDE", "DirectRecruiterAT", "DirectRecruiterDK", "n/a"),
		"ATTACHMENTS":       enum("CVOnly", "CV+Cover", "CV+Refs", "MissingCV"),
		"GEO_DETECTION":     enum("Accurate", "Inaccurate", "VPNProxy"),
		"TEMPLATE_FALLBACK": enum("None", "EU"),
	})
}

func stepSchema() map[string]any {
	return object(map[string]any{
		"stepId":               str(),
		"sequence":             integer(),
		"description":          str(),
		"expectedResult":       str(),
		"testData":             describedStr("Concrete examples, e.g. 'Name: Muller, Amount: 500 CHF'"),
		"estimatedDurationMin": integer(),
		"priority":             enum("High", "Medium", "Low"),
		"generatedExample":     boolean(),
		"notes":                str(),
	}, "stepId", "sequence", "description", "expectedResult", "estimatedDurationMin", "priority")
}

func testCaseSchema() map[string]any {
	flowStep := object(map[string]any{
		"stepId":         str(),
		"sequence":       integer(),
		"description":    str(),
		"expectedResult": str(),
	})
	return object(map[string]any{
		"caseId":               str(),
		"title":                str(),
		"summary":              str(),
		"tags":                 array(str()),
		"meta":                 metaSchema(),
		"priority":             enum("High", "Medium", "Low"),
		"type":                 enum("functional", "regression", "smoke", "exploratory"),
		"preconditions":        array(str()),
		"estimatedDurationMin": integer(),
		"estimatedEffort":      enum("XS", "S", "M", "L", "XL"),
		"steps":                array(stepSchema()),
		"negativeFlows": array(object(map[string]any{
			"flowId":      str(),
			"description": str(),
			"steps":       array(flowStep),
		})),
	}, "caseId", "title", "summary", "priority", "steps", "preconditions", "estimatedEffort")
}

func testCaseListSchema() map[string]any { return array(testCaseSchema()) }

func defectSchema() map[string]any {
	return object(map[string]any{
		"title":            describedStr("Short, precise defect title for the issue tracker"),
		"description":      describedStr("Detailed description of the defect"),
		"stepsToReproduce": map[string]any{"type": "ARRAY", "items": str(), "description": "Steps leading to the failure, in order"},
		"expectedVsActual": describedStr("Expected versus actual result"),
		"severity":         enum("Critical", "Major", "Minor", "Trivial"),
		"environment":      describedStr("Environment the defect was seen in"),
		"category":         describedStr("Defect category, e.g. UI, Data, Integration"),
	}, "title", "description", "stepsToReproduce", "expectedVsActual", "severity")
}

func analysisSchema() map[string]any {
	return object(map[string]any{
		"isMatch":        map[string]any{"type": "BOOLEAN", "description": "Does the image match the expected result?"},
		"confidence":     map[string]any{"type": "INTEGER", "description": "Confidence of the assessment (0-100)"},
		"reasoning":      describedStr("Reasoning behind the assessment"),
		"detectedIssues": map[string]any{"type": "ARRAY", "items": str(), "description": "Issues found, if any"},
	}, "isMatch", "confidence", "reasoning")
}
