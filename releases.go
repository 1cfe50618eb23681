package gangway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tfkr-ae/gangway/domain"
	"gopkg.in/yaml.v3"
)

// GitHubAsset represents an asset attached to a GitHub release.
type GitHubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	ContentType        string `json:"content_type"`
}

// GitHubRelease represents a GitHub release.
type GitHubRelease struct {
	TagName     string        `json:"tag_name"`
	Name        string        `json:"name"`
	PublishedAt time.Time     `json:"published_at"`
	URL         string        `json:"html_url"`
	Assets      []GitHubAsset `json:"assets"` // Assets attached to the release
}

// HookConfig is the hook.yaml manifest shipped with a hook release.
type HookConfig struct {
	Name        string `yaml:"name"`
	Author      string `yaml:"author"`
	SourceURL   string `yaml:"source_url"`
	Description string `yaml:"description"`
}

func getAsset(assets []GitHubAsset, name string) (GitHubAsset, error) {
	for _, asset := range assets {
		if name == asset.Name {
			return asset, nil
		}
	}
	return GitHubAsset{}, fmt.Errorf("finding asset with name %s", name)
}

func Get(url string) (string, error) {
	res, err := http.Get(url)
	if err != nil {
		return "", fmt.Errorf("getting %s : %w", url, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("reading resp body : %w", err)
	}
	return string(body), nil
}

// ExtractAuthorRepo extracts the author/repo format from a GitHub URL.
func ExtractAuthorRepo(githubURL string) (string, error) {
	parsedURL, err := url.Parse(githubURL)
	if err != nil {
		return "", err
	}

	// Ensure the host is GitHub
	if parsedURL.Host != "github.com" {
		return "", fmt.Errorf("not a valid GitHub URL")
	}

	// Split the path and extract the author/repo part
	parts := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("URL path is not in the expected format")
	}

	authorRepo := fmt.Sprintf("%s/%s", parts[0], parts[1])
	return authorRepo, nil
}

func GetConfig(url string) (cfg HookConfig, err error) {
	res, err := http.Get(url)
	if err != nil {
		return cfg, fmt.Errorf("getting %s : %w", url, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return cfg, fmt.Errorf("reading resp body : %w", err)
	}
	err = yaml.Unmarshal(body, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("unmarshalling yaml : %w", err)
	}
	return cfg, nil
}

// githubAPIBase is a variable so tests can point the lookups at a local server.
var githubAPIBase = "https://api.github.com"

// fetchReleases lists the releases of a GitHub repository, newest first.
func fetchReleases(authorRepo string) ([]GitHubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/releases", githubAPIBase, authorRepo)
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request : %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getting releases for %s : %w", authorRepo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api failed with status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body : %w", err)
	}

	var releases []GitHubRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("unmarshalling release: %w", err)
	}
	return releases, nil
}

// GetLatestRelease resolves the newest release of a hook repository along
// with its hook.yaml manifest.
func GetLatestRelease(repo string) (release GitHubRelease, config HookConfig, err error) {
	authorRepo, err := ExtractAuthorRepo(repo)
	if err != nil {
		return release, config, fmt.Errorf("parsing author/repo from url %s : %w", repo, err)
	}
	releases, err := fetchReleases(authorRepo)
	if err != nil {
		return release, config, err
	}
	if len(releases) == 0 {
		return release, config, fmt.Errorf("no releases found for %s", authorRepo)
	}

	release = releases[0]
	cfg, err := getAsset(release.Assets, "hook.yaml")
	if err != nil {
		return release, config, fmt.Errorf("no manifest found for release : %w", err)
	}
	config, err = GetConfig(cfg.BrowserDownloadURL)
	if err != nil {
		return release, config, fmt.Errorf("error fetching manifest from url %s : %w", cfg.BrowserDownloadURL, err)
	}
	return release, config, nil
}

// projectRepoURL is where gangway itself is released.
const projectRepoURL = "https://github.com/tfkr-ae/gangway"

// UpdateNotice reports whether a newer gangway release exists. It returns an
// empty string when the build is current, unversioned, or the lookup fails,
// so callers can print the result unconditionally.
func UpdateNotice(current string) string {
	if current == "" || current == "dev" {
		return ""
	}
	authorRepo, err := ExtractAuthorRepo(projectRepoURL)
	if err != nil {
		return ""
	}
	releases, err := fetchReleases(authorRepo)
	if err != nil || len(releases) == 0 {
		return ""
	}
	latest := releases[0].TagName
	if strings.TrimPrefix(latest, "v") == strings.TrimPrefix(current, "v") {
		return ""
	}
	return fmt.Sprintf("A newer release %s is available at %s/releases", latest, projectRepoURL)
}

// InstallHook downloads the latest release of a hook repository and stores
// its Lua source in the history database. Installed hooks start enabled and
// run on the next deployment unless disabled first.
func (deployment *Deployment) InstallHook(repoURL string) (*domain.Hook, error) {
	release, config, err := GetLatestRelease(repoURL)
	if err != nil {
		return nil, fmt.Errorf("resolving hook release : %w", err)
	}
	asset, err := getAsset(release.Assets, "hook.lua")
	if err != nil {
		return nil, fmt.Errorf("release %s has no hook.lua asset : %w", release.TagName, err)
	}
	luaCode, err := Get(asset.BrowserDownloadURL)
	if err != nil {
		return nil, fmt.Errorf("downloading hook source : %w", err)
	}

	err = deployment.Repo.CreateHook(config.Name, config.SourceURL, config.Author, luaCode, release.PublishedAt, config.Description)
	if err != nil {
		return nil, fmt.Errorf("storing hook %s : %w", config.Name, err)
	}
	hook, err := deployment.Repo.GetHookByName(config.Name)
	if err != nil {
		return nil, fmt.Errorf("loading installed hook %s : %w", config.Name, err)
	}
	deployment.Logger.Info("hook installed", "name", hook.Name, "release", release.TagName)
	return hook, nil
}
