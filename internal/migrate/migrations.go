package migrate

// ManageEnvironmentsSentinel is the pseudo environment the settings screen
// uses for its "manage environments" entry. It never receives credentials.
const ManageEnvironmentsSentinel = "manage-environments"

// Migrations returns the registered schema transitions in order.
func Migrations() []Migration {
	return []Migration{
		{From: 1, Name: "global-steps", Apply: toV2},
		{From: 2, Name: "shell-type", Apply: toV3},
		{From: 3, Name: "per-environment-docker-login", Apply: toV4},
		{From: 4, Name: "environment-parameters-alias", Apply: toV5},
	}
}

// toV2 moves project deploymentSteps into the global step pool and creates a
// default combination per project and environment.
func toV2(doc Document) Document {
	steps := ensureSlice(doc, "steps")
	combinations := ensureSlice(doc, "stepCombinations")
	environments := stringList(doc["environments"])

	stepIDs := map[string]bool{}
	for _, s := range objects(steps) {
		stepIDs[asString(s["id"])] = true
	}
	comboIDs := map[string]bool{}
	for _, c := range objects(combinations) {
		comboIDs[asString(c["id"])] = true
	}

	for _, project := range objects(doc["projects"]) {
		raw, ok := project["deploymentSteps"]
		if !ok {
			continue
		}
		delete(project, "deploymentSteps")

		moved := objects(raw)
		ids := make([]any, 0, len(moved))
		for _, step := range moved {
			id := asString(step["id"])
			ids = append(ids, id)
			if stepIDs[id] {
				continue
			}
			stepIDs[id] = true
			steps = append(steps, step)
		}

		projectID := asString(project["id"])
		projectName := asString(project["name"])
		for _, env := range environments {
			id := "default-" + projectID + "-" + env
			if comboIDs[id] {
				continue
			}
			comboIDs[id] = true
			combinations = append(combinations, map[string]any{
				"id":          id,
				"name":        "default " + projectName + " " + env,
				"steps":       append([]any(nil), ids...),
				"projectId":   projectID,
				"environment": env,
			})
		}
	}

	doc["steps"] = steps
	doc["stepCombinations"] = combinations
	return doc
}

// toV3 tags every step with the bash shell, the only one that existed before.
func toV3(doc Document) Document {
	ensureSlice(doc, "steps")
	for _, step := range objects(doc["steps"]) {
		if asString(step["shellType"]) == "" {
			step["shellType"] = "bash"
		}
	}
	return doc
}

// toV4 turns a flat dockerLogin credential into a per-environment map.
func toV4(doc Document) Document {
	environments := stringList(doc["environments"])

	for _, project := range objects(doc["projects"]) {
		login, ok := asMap(project["dockerLogin"])
		if !ok {
			project["dockerLogin"] = map[string]any{}
			continue
		}
		if !isFlatCredential(login) {
			continue
		}

		perEnv := map[string]any{}
		for _, env := range environments {
			if env == ManageEnvironmentsSentinel {
				continue
			}
			perEnv[env] = map[string]any{
				"registry": asString(login["registry"]),
				"username": asString(login["username"]),
				"password": asString(login["password"]),
			}
		}
		project["dockerLogin"] = perEnv
	}
	return doc
}

// isFlatCredential reports whether login has the pre-v4 shape. A per-environment
// map holds objects; the flat shape holds the credential strings directly.
func isFlatCredential(login map[string]any) bool {
	for _, key := range []string{"registry", "username", "password"} {
		if v, ok := login[key]; ok {
			if _, isObj := asMap(v); !isObj {
				return true
			}
		}
	}
	return false
}

// toV5 merges the envSpecificParams alias into environmentSpecificParameters.
func toV5(doc Document) Document {
	for _, step := range objects(doc["steps"]) {
		alias, hasAlias := step["envSpecificParams"]
		if !hasAlias {
			continue
		}
		delete(step, "envSpecificParams")

		canonical := objects(step["environmentSpecificParameters"])

		seen := map[[2]string]bool{}
		merged := make([]any, 0, len(canonical))
		for _, p := range canonical {
			seen[paramKey(p)] = true
			merged = append(merged, p)
		}
		for _, p := range aliasParams(alias) {
			if seen[paramKey(p)] {
				continue
			}
			seen[paramKey(p)] = true
			merged = append(merged, p)
		}
		step["environmentSpecificParameters"] = merged
	}
	return doc
}

func paramKey(p map[string]any) [2]string {
	return [2]string{asString(p["name"]), asString(p["environment"])}
}

// aliasParams accepts the alias in either list form or the keyed form
// {env: {name: value}}.
func aliasParams(v any) []map[string]any {
	if list := objects(v); list != nil {
		return list
	}
	byEnv, ok := asMap(v)
	if !ok {
		return nil
	}

	var out []map[string]any
	for _, env := range sortedKeys(byEnv) {
		values, ok := asMap(byEnv[env])
		if !ok {
			continue
		}
		for _, name := range sortedKeys(values) {
			out = append(out, map[string]any{
				"name":        name,
				"environment": env,
				"value":       asString(values[name]),
			})
		}
	}
	return out
}
