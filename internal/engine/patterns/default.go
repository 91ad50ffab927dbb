package patterns

// DefaultSpecs returns the built-in detector catalogue. Detector names double
// as feature names, so renaming one is a schema change. All detectors assume
// text that has already been decoded, lowercased, and whitespace-collapsed.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Name:     "cmd_keyword_count",
			Category: CategoryCmd,
			Matchers: []MatcherSpec{{Kind: KindSubstring, Tokens: []string{
				"ls", "cat", "wget", "curl", "chmod", "chown",
				"rm ", "rm -rf", "mv ", "cp ", "echo ", "id", "whoami",
				"uname", "ping", "nc ", "netcat", "bash", "sh ", "/bin/sh",
				"/bin/bash", "nohup", "python", "perl", "php ", "nc -e",
			}}},
		},
		{
			Name:     "cmd_special_count",
			Category: CategoryCmd,
			Matchers: []MatcherSpec{{Kind: KindSubstring, Tokens: []string{
				";", "&&", "||", "|", "`", "$(", ")", ">>", "<", "&",
			}}},
		},
		{
			Name:     "shell_pattern_count",
			Category: CategoryCmd,
			Matchers: []MatcherSpec{{Kind: KindSubstring, Tokens: []string{
				"sh -c", "/bin/sh", "/bin/bash",
				"$(whoami", "$(id", "$(uname", "$(curl", "$(wget",
			}}},
		},
		{
			Name:     "path_traversal_count",
			Category: CategoryCmd,
			Matchers: []MatcherSpec{{Kind: KindSubstring, Tokens: []string{
				"../", `..\`, "%2e%2e%2f", `%2e%2e\`, "..%2f", "%252e%252e%252f",
			}}},
		},
		{
			Name:     "sensitive_file_count",
			Category: CategoryCmd,
			Matchers: []MatcherSpec{{Kind: KindSubstring, Tokens: []string{
				"/etc/passwd", "/etc/shadow", "/etc/hosts",
				"id_rsa", "id_dsa", "authorized_keys",
				"web.config", "config.php", "settings.py",
				".htaccess", "wp-config.php",
			}}},
		},
		{
			Name:     "sql_keyword_count",
			Category: CategorySQL,
			Matchers: []MatcherSpec{
				{Kind: KindSubstring, Tokens: []string{
					"select", "union", "insert", "update", "delete",
					"drop", "truncate", "alter", "create",
					"from", "where", "group by", "order by",
					"having", "limit", "offset",
					"into", "values", "join", "inner join", "outer join",
					"sleep", "benchmark",
				}},
				{Kind: KindRegex, Pattern: `0x[0-9a-f]{4,}`},
				{Kind: KindRegex, Pattern: `/\*![0-9]*\s*select`},
				{Kind: KindRegex, Pattern: `union(?:/\*.*?\*/|\s+)+select`, Weight: 2},
			},
		},
		{
			Name:     "sql_comment_count",
			Category: CategorySQL,
			Matchers: []MatcherSpec{
				{Kind: KindSubstring, Tokens: []string{"--", "/*", "*/", "#", "--+", "#+"}},
				{Kind: KindRegex, Pattern: `/\*.*?\*/`},
			},
		},
		{
			Name:     "sql_boolean_ops",
			Category: CategorySQL,
			Matchers: []MatcherSpec{{Kind: KindRegex,
				Pattern: `(?:\bor\b|\band\b|\bxor\b)\s+[0-9a-z_'"]+\s*=\s*[0-9a-z_'"]+`,
			}},
		},
		{
			Name:     "sql_func_count",
			Category: CategorySQL,
			Matchers: []MatcherSpec{{Kind: KindRegex,
				Pattern: `\b(?:ascii|char|count|sum|avg|min|max|substr|substring|md5|sha1|` +
					`concat|database|schema|version|sleep|benchmark|if|pg_sleep|pg_read_file|` +
					`json_extract|extractvalue|updatexml)\s*\(`,
			}},
		},
		{
			Name:     "sql_logic_count",
			Category: CategorySQL,
			Matchers: []MatcherSpec{
				{Kind: KindSubstring, Tokens: []string{
					"1=1", "1 = 1", "1=2", "1 = 2",
					"true", "false", "is null", "is not null",
					"like '%", `like "%`,
				}},
				{Kind: KindSubstring, Tokens: []string{
					"%27", "%22", "%23", "%20or%20", "%20and%20",
					"%2527", "%2520", "%255c", "%253d",
				}},
				{Kind: KindPresent, Pattern: `%[0-9a-f]{2}%[0-9a-f]{2}`, Weight: 2},
				{Kind: KindRegex, Pattern: `union(?:/\*.*?\*/|\s+)+select`, Weight: 2},
				{Kind: KindRegex, Pattern: `\bor\s*[/\*\)\(+\s]*1\s*=\s*1`, Weight: 2},
				{Kind: KindCooccur, Pattern: `\\u0*27`,
					Tokens: []string{"select", "union", " or ", " and "}, Weight: 2},
			},
		},
		{
			Name:     "xss_tag_count",
			Category: CategoryXSS,
			Matchers: []MatcherSpec{{Kind: KindRegex,
				Pattern: `<\s*(?:script|img|svg|math|iframe|object|embed|video|audio|details|marquee|body|input|textarea|button)\b`,
			}},
		},
		{
			Name:     "xss_event_count",
			Category: CategoryXSS,
			Matchers: []MatcherSpec{{Kind: KindRegex, Pattern: `\bon\w+\s*=`}},
		},
		{
			Name:     "js_proto_count",
			Category: CategoryXSS,
			Matchers: []MatcherSpec{{Kind: KindSubstring, Tokens: []string{
				"javascript:", "vbscript:", "data:text/html", "data:text/javascript",
			}}},
		},
		{
			Name:     "xss_js_uri_count",
			Category: CategoryXSS,
			Matchers: []MatcherSpec{{Kind: KindSubstring, Tokens: []string{
				"href=javascript:", "src=javascript:", "xlink:href=javascript:",
			}}},
		},
		{
			Name:     "xss_rare_tag_count",
			Category: CategoryXSS,
			Matchers: []MatcherSpec{{Kind: KindRegex,
				Pattern: `<\s*(?:svg|math|details|marquee|embed|object|video|audio)\b`,
			}},
		},
		{
			Name:     "unicode_escape_count",
			Category: CategoryObfs,
			Matchers: []MatcherSpec{{Kind: KindRegex, Pattern: `\\u[0-9a-f]{4}`}},
		},
		{
			Name:     "base64_chunk_count",
			Category: CategoryObfs,
			Matchers: []MatcherSpec{{Kind: KindRegex, Pattern: `[A-Za-z0-9+/]{20,}={0,2}`}},
		},
		{
			Name:     "broken_auth_count",
			Category: CategoryAuth,
			Matchers: []MatcherSpec{
				{Kind: KindSubstring, Tokens: []string{
					"login", "signin", "signup", "register",
					"username=", "user=", "userid=",
					"password=", "pwd=", "pass=", "passwd=",
					"token=", "access_token=", "refresh_token=",
					"jwt=", "authorization", "bearer ",
					"api_key=", "apikey=", "key=",
					"session=", "sessionid=", "sessid=",
				}},
				{Kind: KindPresent, Weight: 2, Tokens: []string{
					"123", "1234", "12345", "123456", "password", "admin", "root",
				}},
				{Kind: KindPresent, Weight: 3, Tokens: []string{
					`"alg":"none"`, `"alg": "none"`, `'alg':'none'`,
				}},
				{Kind: KindPresent, Weight: 2, Tokens: []string{
					"otp=000000", "otp=111111", "pin=0000",
				}},
				{Kind: KindAnyOf, Tokens: []string{
					"/login", "/auth", "/session", "/reset", "/forgot",
				}},
			},
		},
	}
}

// DefaultCatalogue compiles the built-in specs. The defaults are tested, so
// a compile failure here is a programming error.
func DefaultCatalogue() *Catalogue {
	c, err := Compile(DefaultSpecs())
	if err != nil {
		panic(err)
	}
	return c
}
