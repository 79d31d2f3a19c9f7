package config

// Credentials holds the secrets read from the environment. Only presence is
// checked at startup; a missing token surfaces as a configuration error on the
// tool that needs it.
type Credentials struct {
	GitHubToken    string
	GitLabToken    string
	GerritUsername string
	GerritPassword string
	JiraURL        string
	JiraToken      string
}

// CredentialVar describes one environment variable a provider reads.
type CredentialVar struct {
	Platform string
	Name     string
	Value    string
	Set      bool
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(string) (string, bool)

// LoadCredentials reads every configured credential variable through lookup.
func LoadCredentials(cfg *Config, lookup LookupFunc) Credentials {
	get := func(name string) string {
		if name == "" {
			return ""
		}
		v, _ := lookup(name)
		return v
	}
	p := cfg.Providers
	return Credentials{
		GitHubToken:    get(p.GitHub.TokenEnv),
		GitLabToken:    get(p.GitLab.TokenEnv),
		GerritUsername: get(p.Gerrit.UsernameEnv),
		GerritPassword: get(p.Gerrit.PasswordEnv),
		JiraURL:        get(p.Jira.URLEnv),
		JiraToken:      get(p.Jira.TokenEnv),
	}
}

// CredentialVars lists the credential variables in a stable order for
// "config check".
func CredentialVars(cfg *Config, lookup LookupFunc) []CredentialVar {
	p := cfg.Providers
	vars := []CredentialVar{
		{Platform: "github", Name: p.GitHub.TokenEnv},
		{Platform: "gitlab", Name: p.GitLab.TokenEnv},
		{Platform: "gerrit", Name: p.Gerrit.UsernameEnv},
		{Platform: "gerrit", Name: p.Gerrit.PasswordEnv},
		{Platform: "jira", Name: p.Jira.URLEnv},
		{Platform: "jira", Name: p.Jira.TokenEnv},
	}
	for i := range vars {
		if vars[i].Name == "" {
			continue
		}
		v, ok := lookup(vars[i].Name)
		vars[i].Value = v
		vars[i].Set = ok && v != ""
	}
	return vars
}
